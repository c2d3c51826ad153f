package tests

import (
	"bytes"
	"encoding/json"
	stdlog "log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/mwalimu/shule/apps/api/echo"
	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/achievement"
	"github.com/mwalimu/shule/core/album"
	"github.com/mwalimu/shule/core/announcement"
	"github.com/mwalimu/shule/core/club"
	"github.com/mwalimu/shule/core/document"
	"github.com/mwalimu/shule/core/event"
	"github.com/mwalimu/shule/core/staff"
	"github.com/mwalimu/shule/core/tc"
	emailsvc "github.com/mwalimu/shule/services/email"
	logsvc "github.com/mwalimu/shule/services/logger"
	inmemdb "github.com/mwalimu/shule/storage/database/inmem"
	"github.com/mwalimu/shule/storage/files"
)

var (
	app     Server
	tcRepo  tc.Repository
	annRepo announcement.Repository

	errNotFound = httpErr{Error: "not found"}
)

// setup rebuilds the whole stack over a fresh in-memory DB so tests
// never see each other's data.
func setup(t *testing.T) {
	t.Helper()

	conf := &core.Config{
		AppName:    "shule",
		Env:        "TEST",
		TestMode:   true,
		AdminEmail: mail.Address{Address: "admin@school.test"},
		Import: core.ImportConfig{
			MaxCSVSize:       2 << 20,
			MaxArchiveSize:   100 << 20,
			MaxReportedSkips: 10,
		},
	}

	// set up DB & repos
	db := inmemdb.Open()
	tcRepo = inmemdb.NewTcRepository(db)
	annRepo = inmemdb.NewAnnouncementRepository(db)

	// set up services
	store := files.NewMemStore()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	logger := logsvc.NewRollbarLogger(stdlog.New(os.Stdout, "TEST : ", stdlog.LstdFlags), conf)
	logger.Enable(false)

	validate := validator.New()
	lang := en.New()
	uni := ut.New(lang, lang)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	// set up server
	app = NewServer(
		ServerDeps{
			Conf:            conf,
			Logger:          logger,
			TcSvc:           tc.NewService(conf, tcRepo, store, mailSvc, logger),
			AchievementSvc:  achievement.NewService(inmemdb.NewAchievementRepository(db), store),
			AlbumSvc:        album.NewService(inmemdb.NewAlbumRepository(db), store),
			AnnouncementSvc: announcement.NewService(annRepo),
			ClubSvc:         club.NewService(inmemdb.NewClubRepository(db)),
			DocumentSvc:     document.NewService(inmemdb.NewDocumentRepository(db), store),
			StaffSvc:        staff.NewService(inmemdb.NewStaffRepository(db), store),
			EventSvc:        event.NewService(inmemdb.NewEventRepository(db), store),
			Validate:        validate,
			Translator:      translator,
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

type formFile struct {
	field string
	name  string
	data  []byte
}

func newMultipartRequest(t *testing.T, method, path string, files ...formFile) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("newMultipartRequest(): %v", err)
		}
		if _, err := w.Write(f.data); err != nil {
			t.Fatalf("newMultipartRequest(): %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("newMultipartRequest(): %v", err)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func decodeObj(t *testing.T, data []byte, obj interface{}) {
	if err := json.Unmarshal(data, obj); err != nil {
		t.Fatalf("decodeObj(): %v; data %s", err, data)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if tt.wantCode == 0 {
		tt.wantCode = http.StatusOK
	}
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
