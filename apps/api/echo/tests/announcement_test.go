package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/mwalimu/shule/core/announcement"
	"github.com/mwalimu/shule/tests"
)

func Test_announcementApi_publicQueryLive(t *testing.T) {
	setup(t)

	now := time.Now().UTC()
	live := testutil.CreateAnnouncement(t, annRepo, "Exams start Monday", "Bring your own pens.", announcement.PriorityImportant,
		now.Add(-1*time.Hour), time.Time{})
	evergreen := testutil.CreateAnnouncement(t, annRepo, "School motto", "Elimu ni ufunguo.", announcement.PriorityNormal,
		now.Add(-24*time.Hour), now.Add(24*time.Hour))
	testutil.CreateAnnouncement(t, annRepo, "Not yet published", "x", announcement.PriorityNormal,
		now.Add(1*time.Hour), time.Time{})
	testutil.CreateAnnouncement(t, annRepo, "Already expired", "x", announcement.PriorityUrgent,
		now.Add(-48*time.Hour), now.Add(-24*time.Hour))

	tt := httpTest{path: "/v1/announcements", wantData: marchallList(t, live, evergreen)}
	req, rec := newRequest(http.MethodGet, tt.path)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func Test_announcementApi_adminCrud(t *testing.T) {
	setup(t)

	t.Run("create with default priority", func(t *testing.T) {
		body := marchallObj(t, announcement.NewAnnouncement{Title: "Sports day", Body: "All classes attend."})
		req, rec := newRequest(http.MethodPost, "/v1/admin/announcements", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var created announcement.Announcement
		decodeObj(t, rec.Body.Bytes(), &created)
		if created.ID == "" {
			t.Error("created announcement has no ID")
		}
		if created.Priority != announcement.PriorityNormal {
			t.Errorf("Priority = %q; want %q", created.Priority, announcement.PriorityNormal)
		}
		if created.PublishAt.IsZero() {
			t.Error("PublishAt not defaulted to now")
		}
	})

	t.Run("title and body are required", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title": "this field is required",
				"body":  "this field is required",
			}),
		}
		req, rec := newRequest(http.MethodPost, "/v1/admin/announcements", []byte("{}"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("unknown priority is rejected", func(t *testing.T) {
		body := marchallObj(t, announcement.NewAnnouncement{Title: "T", Body: "B", Priority: "shouty"})
		req, rec := newRequest(http.MethodPost, "/v1/admin/announcements", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	now := time.Now().UTC()
	a := testutil.CreateAnnouncement(t, annRepo, "Library hours", "Open till six.", announcement.PriorityNormal, now, time.Time{})

	t.Run("retrieve", func(t *testing.T) {
		tt := httpTest{path: "/v1/admin/announcements/" + a.ID, wantData: marchallObj(t, a)}
		req, rec := newRequest(http.MethodGet, tt.path)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update", func(t *testing.T) {
		body := marchallObj(t, announcement.UpdateAnnouncement{Body: "Open till seven.", Priority: announcement.PriorityImportant})
		req, rec := newRequest(http.MethodPut, "/v1/admin/announcements/"+a.ID, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var updated announcement.Announcement
		decodeObj(t, rec.Body.Bytes(), &updated)
		if updated.Body != "Open till seven." {
			t.Errorf("Body = %q", updated.Body)
		}
		if updated.Priority != announcement.PriorityImportant {
			t.Errorf("Priority = %q", updated.Priority)
		}
		if updated.Title != a.Title {
			t.Errorf("Title changed to %q", updated.Title)
		}
	})

	t.Run("destroy", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, "/v1/admin/announcements/"+a.ID)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v", rec.Code)
		}
		if _, err := annRepo.GetAnnouncement(context.Background(), a.ID); err != announcement.ErrNotFound {
			t.Errorf("GetAnnouncement() after destroy: %v; want ErrNotFound", err)
		}
	})
}
