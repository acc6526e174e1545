package memory

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
)

var testLoc = domain.NewLocation("scores", "high.toml")

func saveAndWait(t *testing.T, d *Device, loc domain.Location, write func(io.Writer) error) domain.SaveResult {
	t.Helper()
	ch := make(chan domain.SaveResult, 1)
	d.SaveAsync(loc, write, func(r domain.SaveResult) { ch <- r })
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for save completion")
		return domain.SaveResult{}
	}
}

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func TestNewDevice(t *testing.T) {
	d := NewDevice()
	defer d.Close()

	assert.True(t, d.IsReady())
	assert.False(t, d.IsBusy())
}

func TestDevice_SetReady(t *testing.T) {
	d := NewDevice()
	defer d.Close()

	d.SetReady(false)
	assert.False(t, d.IsReady())
	d.SetReady(true)
	assert.True(t, d.IsReady())
}

func TestDevice_RoundTrip(t *testing.T) {
	d := NewDevice()
	defer d.Close()

	r := saveAndWait(t, d, testLoc, writeString("alice=100"))
	require.NoError(t, r.Err)

	exists, err := d.Exists(testLoc)
	require.NoError(t, err)
	assert.True(t, exists)

	var got string
	err = d.Load(testLoc, func(rd io.Reader) error {
		data, err := io.ReadAll(rd)
		got = string(data)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "alice=100", got)
}

func TestDevice_Load_NotFound(t *testing.T) {
	d := NewDevice()
	defer d.Close()

	exists, err := d.Exists(testLoc)
	require.NoError(t, err)
	assert.False(t, exists)

	err = d.Load(testLoc, func(io.Reader) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDevice_Load_PropagatesReadError(t *testing.T) {
	d := NewDevice()
	defer d.Close()
	require.NoError(t, saveAndWait(t, d, testLoc, writeString("x")).Err)

	readErr := errors.New("bad format")
	err := d.Load(testLoc, func(io.Reader) error { return readErr })

	assert.ErrorIs(t, err, readErr)
}

func TestDevice_Save_WriteErrorKeepsPreviousContents(t *testing.T) {
	d := NewDevice()
	defer d.Close()
	require.NoError(t, saveAndWait(t, d, testLoc, writeString("v1")).Err)

	r := saveAndWait(t, d, testLoc, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("encode failed")
	})
	require.Error(t, r.Err)

	var got string
	require.NoError(t, d.Load(testLoc, func(rd io.Reader) error {
		data, err := io.ReadAll(rd)
		got = string(data)
		return err
	}))
	assert.Equal(t, "v1", got)
}

func TestDevice_InvalidLocation(t *testing.T) {
	d := NewDevice()
	defer d.Close()
	bad := domain.NewLocation("../up", "x")

	_, err := d.Exists(bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	r := saveAndWait(t, d, bad, writeString("x"))
	assert.ErrorIs(t, r.Err, domain.ErrInvalidInput)

	assert.ErrorIs(t, d.Load(bad, func(io.Reader) error { return nil }), domain.ErrInvalidInput)
}

func TestDevice_Delete(t *testing.T) {
	d := NewDevice()
	defer d.Close()
	require.NoError(t, saveAndWait(t, d, testLoc, writeString("x")).Err)

	d.Delete(testLoc)

	exists, err := d.Exists(testLoc)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDevice_Save_AfterClose(t *testing.T) {
	d := NewDevice()
	require.NoError(t, d.Close())

	r := saveAndWait(t, d, testLoc, writeString("x"))

	assert.ErrorIs(t, r.Err, domain.ErrDeviceClosed)
}

func TestDevice_NormalisesContainers(t *testing.T) {
	d := NewDevice()
	defer d.Close()
	require.NoError(t, saveAndWait(t, d, domain.NewLocation("./scores/", "high.toml"), writeString("x")).Err)

	exists, err := d.Exists(testLoc)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDevice_List(t *testing.T) {
	d := NewDevice()
	defer d.Close()
	require.NoError(t, saveAndWait(t, d, domain.NewLocation("b", "2"), writeString("x")).Err)
	require.NoError(t, saveAndWait(t, d, domain.NewLocation("a", "1"), writeString("x")).Err)

	locs, err := d.List()

	require.NoError(t, err)
	assert.Equal(t, []domain.Location{
		domain.NewLocation("a", "1"),
		domain.NewLocation("b", "2"),
	}, locs)
}
