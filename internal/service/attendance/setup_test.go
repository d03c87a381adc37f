package attendance

import (
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/repository/memory"
)

var testLoc = time.FixedZone("UTC+1", 60*60)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(hour, min int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = time.Date(c.t.Year(), c.t.Month(), c.t.Day(), hour, min, 0, 0, testLoc)
}

func (c *fakeClock) SetDay(year int, month time.Month, day, hour, min int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = time.Date(year, month, day, hour, min, 0, 0, testLoc)
}

type testEnv struct {
	store    *memory.Store
	clock    *fakeClock
	clocks   attendance.ClockService
	breaks   attendance.BreakService
	requests attendance.ChangeRequestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fc := &fakeClock{t: time.Date(2024, time.January, 5, 8, 0, 0, 0, testLoc)}
	store := memory.NewStore()
	store.Now = fc.Now

	clock := Clock{Now: fc.Now, Location: testLoc}
	tx := store.Transactor()

	return &testEnv{
		store:    store,
		clock:    fc,
		clocks:   NewClockService(tx, store.Companies(), store.TimeEntries(), store.BreakIntervals(), clock),
		breaks:   NewBreakService(tx, store.TimeEntries(), store.BreakIntervals(), clock),
		requests: NewChangeRequestService(tx, store.TimeEntries(), store.ChangeRequests(), clock),
	}
}

func clockReq(workerID int64, company string) attendance.ClockActionRequest {
	return attendance.ClockActionRequest{WorkerID: workerID, Company: company}
}

func strPtr(s string) *string { return &s }
