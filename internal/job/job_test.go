package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/goodjobs/shiftbot/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.JobPosting{},
		&models.Application{},
		&models.SequenceCounter{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// fakeGeocoder is a test double for the Geocoder interface.
type fakeGeocoder struct {
	lat, lon float64
	ok       bool
	err      error
	calls    int
}

func (f *fakeGeocoder) Lookup(_ context.Context, _ string) (float64, float64, bool, error) {
	f.calls++
	return f.lat, f.lon, f.ok, f.err
}

func TestCreate_AssignsSequentialIDs(t *testing.T) {
	db := testDB(t)

	first, err := Create(context.Background(), db, nil, CreateOpts{
		Name: "倉儲理貨", Location: "台北市內湖區", Date: "2026-09-01",
		Shifts: []string{"早班", "晚班"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID != "JOB001" {
		t.Errorf("first ID = %q, want JOB001", first.ID)
	}

	second, err := Create(context.Background(), db, nil, CreateOpts{
		Name: "活動佈置", Location: "新北市三重區", Date: "2026-09-02",
		Shifts: []string{"全日"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.ID != "JOB002" {
		t.Errorf("second ID = %q, want JOB002", second.ID)
	}
}

func TestCreate_Validation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	cases := []struct {
		name string
		opts CreateOpts
	}{
		{"missing name", CreateOpts{Location: "x", Date: "2026-09-01", Shifts: []string{"早班"}}},
		{"missing location", CreateOpts{Name: "x", Date: "2026-09-01", Shifts: []string{"早班"}}},
		{"bad date", CreateOpts{Name: "x", Location: "x", Date: "09/01/2026", Shifts: []string{"早班"}}},
		{"no shifts", CreateOpts{Name: "x", Location: "x", Date: "2026-09-01"}},
	}
	for _, tc := range cases {
		if _, err := Create(ctx, db, nil, tc.opts); err == nil {
			t.Errorf("%s: Create should fail", tc.name)
		}
	}
}

func TestCreate_GeocodesWhenCoordinatesMissing(t *testing.T) {
	db := testDB(t)
	geo := &fakeGeocoder{lat: 25.033, lon: 121.565, ok: true}

	posting, err := Create(context.Background(), db, geo, CreateOpts{
		Name: "倉儲理貨", Location: "台北市信義區", Date: "2026-09-01",
		Shifts: []string{"早班"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if geo.calls != 1 {
		t.Errorf("geocoder called %d times, want 1", geo.calls)
	}
	if posting.Latitude == nil || *posting.Latitude != 25.033 {
		t.Errorf("Latitude = %v, want 25.033", posting.Latitude)
	}
	if posting.Longitude == nil || *posting.Longitude != 121.565 {
		t.Errorf("Longitude = %v, want 121.565", posting.Longitude)
	}
}

func TestCreate_GeocoderFailureDoesNotBlock(t *testing.T) {
	db := testDB(t)
	geo := &fakeGeocoder{err: errors.New("upstream down")}

	posting, err := Create(context.Background(), db, geo, CreateOpts{
		Name: "倉儲理貨", Location: "台北市信義區", Date: "2026-09-01",
		Shifts: []string{"早班"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if posting.Latitude != nil || posting.Longitude != nil {
		t.Error("coordinates set despite geocoder failure")
	}
}

func TestCreate_ExplicitCoordinatesSkipGeocoder(t *testing.T) {
	db := testDB(t)
	geo := &fakeGeocoder{lat: 1, lon: 1, ok: true}
	lat, lon := 24.147, 120.674

	posting, err := Create(context.Background(), db, geo, CreateOpts{
		Name: "倉儲理貨", Location: "台中市西屯區", Date: "2026-09-01",
		Shifts: []string{"早班"}, Latitude: &lat, Longitude: &lon,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if geo.calls != 0 {
		t.Errorf("geocoder called %d times, want 0", geo.calls)
	}
	if *posting.Latitude != lat || *posting.Longitude != lon {
		t.Errorf("coordinates = %v,%v, want %v,%v",
			*posting.Latitude, *posting.Longitude, lat, lon)
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := Get(db, "JOB999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListAvailable_FiltersPastDates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, date := range []string{"2026-08-20", "2026-08-28", "2026-09-05"} {
		if _, err := Create(ctx, db, nil, CreateOpts{
			Name: "job " + date, Location: "台北市", Date: date, Shifts: []string{"早班"},
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	postings, err := ListAvailable(db, now)
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("len = %d, want 2 (today and future)", len(postings))
	}
	if postings[0].Date != "2026-08-28" || postings[1].Date != "2026-09-05" {
		t.Errorf("dates = %s, %s; want 2026-08-28, 2026-09-05",
			postings[0].Date, postings[1].Date)
	}
}

func TestDelete_CascadesApplications(t *testing.T) {
	db := testDB(t)

	posting, err := Create(context.Background(), db, nil, CreateOpts{
		Name: "倉儲理貨", Location: "台北市", Date: "2026-09-01", Shifts: []string{"早班"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	app := models.Application{
		ID: posting.ID + "-20260828-001", JobID: posting.ID,
		LineUserID: "U-alpha", UserName: "王小明", Shift: "早班",
	}
	if err := db.Create(&app).Error; err != nil {
		t.Fatalf("seed application: %v", err)
	}

	if err := Delete(db, posting.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var count int64
	db.Model(&models.Application{}).Where("job_id = ?", posting.ID).Count(&count)
	if count != 0 {
		t.Errorf("%d applications survived job deletion", count)
	}

	if err := Delete(db, posting.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestShiftListRoundTrip(t *testing.T) {
	db := testDB(t)

	posting, err := Create(context.Background(), db, nil, CreateOpts{
		Name: "倉儲理貨", Location: "台北市", Date: "2026-09-01",
		Shifts: []string{"早班 08:00-12:00", "晚班 18:00-22:00"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := Get(db, posting.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	shifts := loaded.ShiftList()
	if len(shifts) != 2 || shifts[0] != "早班 08:00-12:00" {
		t.Errorf("ShiftList = %v", shifts)
	}
	if !loaded.HasShift("晚班 18:00-22:00") {
		t.Error("HasShift missed an offered shift")
	}
	if loaded.HasShift("夜班") {
		t.Error("HasShift accepted an unoffered shift")
	}
}
