package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/goodjobs/shiftbot/internal/applicant"
	"github.com/goodjobs/shiftbot/internal/job"
	"github.com/goodjobs/shiftbot/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openDB(t, ":memory:")
}

// fileTestDB uses an on-disk database so concurrent writers serialize on
// the busy timeout instead of failing immediately.
func fileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	return openDB(t, "file:"+path+"?_busy_timeout=10000")
}

func openDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Applicant{},
		&models.JobPosting{},
		&models.Application{},
		&models.SequenceCounter{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedWorker(t *testing.T, db *gorm.DB, lineUserID, name string) {
	t.Helper()
	if _, err := applicant.Register(db, lineUserID, applicant.RegisterOpts{
		FullName: name, Phone: "0912345678", Address: "台北市",
	}); err != nil {
		t.Fatalf("seed worker %s: %v", lineUserID, err)
	}
}

func seedJob(t *testing.T, db *gorm.DB, shifts ...string) *models.JobPosting {
	t.Helper()
	posting, err := job.Create(context.Background(), db, nil, job.CreateOpts{
		Name: "倉儲理貨", Location: "台北市內湖區", Date: "2026-09-01", Shifts: shifts,
	})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return posting
}

var testNow = time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

func TestApply_AllocatesDailySequencedIDs(t *testing.T) {
	db := testDB(t)
	seedWorker(t, db, "U-alpha", "王小明")
	seedWorker(t, db, "U-beta", "李小華")
	posting := seedJob(t, db, "早班", "晚班")

	first, err := Apply(db, posting.ID, "U-alpha", "早班", testNow)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := posting.ID + "-20260828-001"
	if first.ID != want {
		t.Errorf("first ID = %q, want %q", first.ID, want)
	}
	if first.UserName != "王小明" {
		t.Errorf("UserName = %q, want snapshot of applicant name", first.UserName)
	}

	second, err := Apply(db, posting.ID, "U-beta", "晚班", testNow)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if second.ID != posting.ID+"-20260828-002" {
		t.Errorf("second ID = %q, want %s-20260828-002", second.ID, posting.ID)
	}
}

func TestApply_Preconditions(t *testing.T) {
	db := testDB(t)
	seedWorker(t, db, "U-alpha", "王小明")
	posting := seedJob(t, db, "早班")

	if _, err := Apply(db, posting.ID, "U-ghost", "早班", testNow); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("unregistered: err = %v, want ErrNotRegistered", err)
	}
	if _, err := Apply(db, "JOB999", "U-alpha", "早班", testNow); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("unknown job: err = %v, want ErrJobNotFound", err)
	}
	if _, err := Apply(db, posting.ID, "U-alpha", "夜班", testNow); !errors.Is(err, ErrInvalidShift) {
		t.Errorf("unknown shift: err = %v, want ErrInvalidShift", err)
	}
}

func TestApply_SecondApplicationRejected(t *testing.T) {
	db := testDB(t)
	seedWorker(t, db, "U-alpha", "王小明")
	posting := seedJob(t, db, "早班", "晚班")

	if _, err := Apply(db, posting.ID, "U-alpha", "早班", testNow); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Same shift and a different shift are both one-per-job violations.
	if _, err := Apply(db, posting.ID, "U-alpha", "早班", testNow); !errors.Is(err, ErrAlreadyApplied) {
		t.Errorf("same shift: err = %v, want ErrAlreadyApplied", err)
	}
	if _, err := Apply(db, posting.ID, "U-alpha", "晚班", testNow); !errors.Is(err, ErrAlreadyApplied) {
		t.Errorf("other shift: err = %v, want ErrAlreadyApplied", err)
	}

	var count int64
	db.Model(&models.Application{}).Where("job_id = ?", posting.ID).Count(&count)
	if count != 1 {
		t.Errorf("%d applications recorded, want 1", count)
	}
}

func TestCancel_HardDeletesAndIsNotIdempotent(t *testing.T) {
	db := testDB(t)
	seedWorker(t, db, "U-alpha", "王小明")
	posting := seedJob(t, db, "早班")

	created, err := Apply(db, posting.ID, "U-alpha", "早班", testNow)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	removed, err := Cancel(db, posting.ID, "U-alpha")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if removed.ID != created.ID {
		t.Errorf("cancelled ID = %q, want %q", removed.ID, created.ID)
	}

	var count int64
	db.Model(&models.Application{}).Where("id = ?", created.ID).Count(&count)
	if count != 0 {
		t.Error("application row still present after cancel")
	}

	if _, err := Cancel(db, posting.ID, "U-alpha"); !errors.Is(err, ErrNotApplied) {
		t.Errorf("second cancel err = %v, want ErrNotApplied", err)
	}
}

func TestApply_AfterCancelContinuesSequence(t *testing.T) {
	db := testDB(t)
	seedWorker(t, db, "U-alpha", "王小明")
	posting := seedJob(t, db, "早班")

	if _, err := Apply(db, posting.ID, "U-alpha", "早班", testNow); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := Cancel(db, posting.ID, "U-alpha"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	again, err := Apply(db, posting.ID, "U-alpha", "早班", testNow)
	if err != nil {
		t.Fatalf("re-Apply: %v", err)
	}
	// Sequence numbers are never reused within a day.
	if again.ID != posting.ID+"-20260828-002" {
		t.Errorf("re-applied ID = %q, want %s-20260828-002", again.ID, posting.ID)
	}
}

func TestApply_ConcurrentSamePairYieldsOneRecord(t *testing.T) {
	db := fileTestDB(t)
	seedWorker(t, db, "U-alpha", "王小明")
	posting := seedJob(t, db, "早班")

	const attempts = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Apply(db, posting.ID, "U-alpha", "早班", testNow)
			switch {
			case err == nil:
				mu.Lock()
				successes++
				mu.Unlock()
			case errors.Is(err, ErrAlreadyApplied):
			default:
				t.Errorf("Apply: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("%d applications succeeded, want exactly 1", successes)
	}
	var count int64
	db.Model(&models.Application{}).
		Where("job_id = ? AND line_user_id = ?", posting.ID, "U-alpha").Count(&count)
	if count != 1 {
		t.Errorf("%d rows recorded, want 1", count)
	}
}

func TestListByApplicant_MostRecentFirst(t *testing.T) {
	db := testDB(t)
	seedWorker(t, db, "U-alpha", "王小明")
	first := seedJob(t, db, "早班")
	second := seedJob(t, db, "晚班")

	if _, err := Apply(db, first.ID, "U-alpha", "早班", testNow); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := Apply(db, second.ID, "U-alpha", "晚班", testNow.Add(time.Hour)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	apps, err := ListByApplicant(db, "U-alpha")
	if err != nil {
		t.Fatalf("ListByApplicant: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("len = %d, want 2", len(apps))
	}
	if apps[0].JobID != second.ID {
		t.Errorf("first listed = %s, want most recent %s", apps[0].JobID, second.ID)
	}
}

func TestGetForJob(t *testing.T) {
	db := testDB(t)
	seedWorker(t, db, "U-alpha", "王小明")
	posting := seedJob(t, db, "早班")

	if _, err := GetForJob(db, posting.ID, "U-alpha"); !errors.Is(err, ErrNotApplied) {
		t.Errorf("err = %v, want ErrNotApplied", err)
	}

	created, err := Apply(db, posting.ID, "U-alpha", "早班", testNow)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got, err := GetForJob(db, posting.ID, "U-alpha")
	if err != nil {
		t.Fatalf("GetForJob: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
}
