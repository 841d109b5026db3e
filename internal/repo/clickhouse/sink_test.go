package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/uptimeprobe/internal/domain"
)

type fakeConn struct {
	batch      *fakeBatch
	prepareErr error
	query      string
}

func (f *fakeConn) PrepareBatch(_ context.Context, query string) (batch, error) {
	f.query = query
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	return f.batch, nil
}

type fakeBatch struct {
	rows       [][]any
	appendErr  error
	sendErr    error
	sendCalled bool
}

func (f *fakeBatch) Append(v ...any) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.rows = append(f.rows, v)
	return nil
}

func (f *fakeBatch) Send() error {
	f.sendCalled = true
	return f.sendErr
}

func sampleResult() domain.CheckResult {
	valid := true
	expiry := time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC)
	return domain.CheckResult{
		SiteID:        "site-1",
		Status:        domain.StatusUp,
		HTTPCode:      200,
		TTFBMs:        12.5,
		TotalMs:       40,
		Retries:       1,
		FailureStreak: 0,
		SSLValid:      &valid,
		SSLExpiry:     &expiry,
		URL:           "https://example.com",
		Timestamp:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSink_WriteAppendsOneRow(t *testing.T) {
	b := &fakeBatch{}
	conn := &fakeConn{batch: b}
	s := &Sink{conn: conn}

	require.NoError(t, s.Write(context.Background(), sampleResult()))
	require.Len(t, b.rows, 1)
	assert.True(t, b.sendCalled)
	assert.Contains(t, conn.query, "uptime.uptime_monitor")

	r := b.rows[0]
	require.Len(t, r, 13)
	assert.Equal(t, "site-1", r[1])
	assert.Equal(t, uint8(1), r[3])
	assert.Equal(t, "UP", r[4])
	assert.Equal(t, uint16(200), r[5])
	assert.Equal(t, uint8(1), r[8])
	assert.Equal(t, uint32(0), r[9])
}

func TestSink_PlainHTTPHasNullTLSColumns(t *testing.T) {
	b := &fakeBatch{}
	s := &Sink{conn: &fakeConn{batch: b}}

	res := sampleResult()
	res.SSLValid = nil
	res.SSLExpiry = nil
	require.NoError(t, s.Write(context.Background(), res))

	assert.Nil(t, b.rows[0][10])
	assert.Nil(t, b.rows[0][11])
}

func TestSink_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("prepare", func(t *testing.T) {
		s := &Sink{conn: &fakeConn{prepareErr: boom}}
		assert.ErrorIs(t, s.Write(context.Background(), sampleResult()), boom)
	})

	t.Run("append skips send", func(t *testing.T) {
		b := &fakeBatch{appendErr: boom}
		s := &Sink{conn: &fakeConn{batch: b}}
		assert.ErrorIs(t, s.Write(context.Background(), sampleResult()), boom)
		assert.False(t, b.sendCalled)
	})

	t.Run("send", func(t *testing.T) {
		b := &fakeBatch{sendErr: boom}
		s := &Sink{conn: &fakeConn{batch: b}}
		assert.ErrorIs(t, s.Write(context.Background(), sampleResult()), boom)
	})
}
