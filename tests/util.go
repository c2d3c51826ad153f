package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/mwalimu/shule/core/announcement"
	"github.com/mwalimu/shule/core/tc"
)

func CreateTcRecord(
	t *testing.T,
	repo tc.Repository,
	number, student, father, admission, class string,
	issued time.Time,
	verified bool,
	createdAt ...time.Time,
) tc.Record {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	rec := tc.Record{
		TcNumber:    number,
		StudentName: student,
		FatherName:  father,
		AdmissionNo: admission,
		Class:       class,
		DateOfIssue: issued,
		Verified:    verified,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	rec, err := repo.CreateRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("CreateTcRecord(): %v", err)
	}
	return rec
}

func CreateAnnouncement(
	t *testing.T,
	repo announcement.Repository,
	title, body, priority string,
	publishAt, expiresAt time.Time,
) announcement.Announcement {
	now := time.Now().UTC()
	a := announcement.Announcement{
		Title:     title,
		Body:      body,
		Priority:  priority,
		PublishAt: publishAt.UTC(),
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !expiresAt.IsZero() {
		a.ExpiresAt = expiresAt.UTC()
	}
	a, err := repo.CreateAnnouncement(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAnnouncement(): %v", err)
	}
	return a
}
