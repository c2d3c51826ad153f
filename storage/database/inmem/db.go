// Package inmemdb provides map-backed repositories for tests and local
// development. Query ordering is not applied.
package inmemdb

type DB struct {
	tc           *tcTable
	announcement *announcementTable
	achievement  *achievementTable
	album        *albumTable
	club         *clubTable
	document     *documentTable
	staff        *staffTable
	event        *eventTable
}

func Open() *DB {
	return &DB{
		tc:           newTcTable(),
		announcement: newAnnouncementTable(),
		achievement:  newAchievementTable(),
		album:        newAlbumTable(),
		club:         newClubTable(),
		document:     newDocumentTable(),
		staff:        newStaffTable(),
		event:        newEventTable(),
	}
}
