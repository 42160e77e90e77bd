package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taoyao-code/radar-server/internal/driver"
)

type stubReporter struct {
	stats driver.LinkStats
}

func (s *stubReporter) Address() byte               { return 0x80 }
func (s *stubReporter) LinkStats() driver.LinkStats { return s.stats }

func TestSerialChecker_NoExchangeYet(t *testing.T) {
	c := NewSerialChecker(&stubReporter{}, time.Second)
	res := c.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
}

func TestSerialChecker_Healthy(t *testing.T) {
	rep := &stubReporter{stats: driver.LinkStats{
		Online:      true,
		LastSuccess: time.Now(),
	}}
	c := NewSerialChecker(rep, 10*time.Second)
	res := c.Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
}

func TestSerialChecker_LastExchangeFailed(t *testing.T) {
	rep := &stubReporter{stats: driver.LinkStats{
		Online:      false,
		LastSuccess: time.Now().Add(-time.Second),
		LastError:   time.Now(),
	}}
	c := NewSerialChecker(rep, 10*time.Second)
	res := c.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
}

func TestSerialChecker_StaleSuccess(t *testing.T) {
	rep := &stubReporter{stats: driver.LinkStats{
		Online:      true,
		LastSuccess: time.Now().Add(-time.Minute),
	}}
	c := NewSerialChecker(rep, 10*time.Second)
	res := c.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
}
