package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driving"
	"github.com/custodia-labs/filebuddy/internal/logger"
)

// --- Mock implementations for persistent file testing ---

// mockSaveDevice implements driven.SaveDevice for testing.
// Saves complete synchronously so tests can assert on the result directly.
type mockSaveDevice struct {
	mu        sync.Mutex
	ready     bool
	files     map[domain.Location][]byte
	existsErr error
	loadErr   error

	existsCalls int
	loadCalls   int
	saveCalls   int
	loadedFrom  []domain.Location
}

func newMockSaveDevice() *mockSaveDevice {
	return &mockSaveDevice{
		ready: true,
		files: make(map[domain.Location][]byte),
	}
}

func (m *mockSaveDevice) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *mockSaveDevice) IsBusy() bool { return false }

func (m *mockSaveDevice) Exists(loc domain.Location) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.files[loc]
	return ok, nil
}

func (m *mockSaveDevice) SaveAsync(loc domain.Location, write driven.WriteFunc, done driven.SaveCompleted) {
	m.mu.Lock()
	m.saveCalls++
	m.mu.Unlock()

	result := domain.SaveResult{RequestID: "req", Location: loc, Started: time.Now()}
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		result.Err = err
	} else {
		m.mu.Lock()
		m.files[loc] = buf.Bytes()
		m.mu.Unlock()
	}
	result.Finished = time.Now()
	done(result)
}

func (m *mockSaveDevice) Load(loc domain.Location, read driven.ReadFunc) error {
	m.mu.Lock()
	m.loadCalls++
	m.loadedFrom = append(m.loadedFrom, loc)
	data, ok := m.files[loc]
	loadErr := m.loadErr
	m.mu.Unlock()

	if loadErr != nil {
		return loadErr
	}
	if !ok {
		return domain.ErrNotFound
	}
	return read(bytes.NewReader(data))
}

func (m *mockSaveDevice) Close() error { return nil }

// serviceableDevice is a device that also needs periodic servicing.
type serviceableDevice struct {
	*mockSaveDevice
	updates int
}

func (d *serviceableDevice) Update(_ context.Context) { d.updates++ }

// mockAppContext implements driving.AppContext for testing.
type mockAppContext struct {
	device     driven.SaveDevice
	deviceErr  error
	components []driving.Component
	calls      int
}

func (a *mockAppContext) AddComponent(c driving.Component) {
	a.components = append(a.components, c)
}

func (a *mockAppContext) SaveDevice() (driven.SaveDevice, error) {
	a.calls++
	if a.deviceErr != nil {
		return nil, a.deviceErr
	}
	return a.device, nil
}

// transferRecorder counts transfer invocations and records what was read.
type transferRecorder struct {
	state    string
	reads    int
	writes   int
	readErr  error
	writeErr error
}

func (r *transferRecorder) write(w io.Writer) error {
	r.writes++
	if r.writeErr != nil {
		return r.writeErr
	}
	_, err := io.WriteString(w, r.state)
	return err
}

func (r *transferRecorder) read(rd io.Reader) error {
	r.reads++
	if r.readErr != nil {
		return r.readErr
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return err
	}
	r.state = string(data)
	return nil
}

var testLocation = domain.NewLocation("scores", "high.toml")

func newInitialisedFile(t *testing.T, device driven.SaveDevice, rec *transferRecorder, opts ...PersistentFileOption) *PersistentFile {
	t.Helper()
	f := NewPersistentFile(testLocation, rec.write, rec.read, opts...)
	require.NoError(t, f.Initialize(&mockAppContext{device: device}))
	return f
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	t.Cleanup(func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	})
	return &buf
}

// --- Initialize ---

func TestNewPersistentFile(t *testing.T) {
	f := NewPersistentFile(testLocation, nil, nil)

	require.NotNil(t, f)
	assert.Equal(t, testLocation, f.Location())
	assert.False(t, f.Loaded())
}

func TestPersistentFile_Initialize(t *testing.T) {
	device := newMockSaveDevice()
	app := &mockAppContext{device: device}
	f := NewPersistentFile(testLocation, nil, nil)

	err := f.Initialize(app)

	require.NoError(t, err)
	assert.Equal(t, 1, app.calls)
	assert.Empty(t, app.components, "plain devices need no servicing")
}

func TestPersistentFile_Initialize_RegistersServiceableDevice(t *testing.T) {
	device := &serviceableDevice{mockSaveDevice: newMockSaveDevice()}
	app := &mockAppContext{device: device}
	f := NewPersistentFile(testLocation, nil, nil)

	require.NoError(t, f.Initialize(app))

	require.Len(t, app.components, 1)
	assert.Same(t, device, app.components[0])
}

func TestPersistentFile_Initialize_DeviceError(t *testing.T) {
	app := &mockAppContext{deviceErr: domain.ErrUnsupportedPlatform}
	f := NewPersistentFile(testLocation, nil, nil)

	err := f.Initialize(app)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedPlatform)
}

func TestPersistentFile_Initialize_Twice(t *testing.T) {
	app := &mockAppContext{device: newMockSaveDevice()}
	f := NewPersistentFile(testLocation, nil, nil)
	require.NoError(t, f.Initialize(app))

	err := f.Initialize(app)

	assert.ErrorIs(t, err, domain.ErrAlreadyInitialized)
	assert.Equal(t, 1, app.calls)
}

// --- Load ---

func TestPersistentFile_Load_ExistingFile(t *testing.T) {
	device := newMockSaveDevice()
	device.files[testLocation] = []byte("alice=100")
	rec := &transferRecorder{}
	f := newInitialisedFile(t, device, rec)

	f.Load()

	assert.True(t, f.Loaded())
	assert.Equal(t, 1, rec.reads)
	assert.Equal(t, "alice=100", rec.state)
	assert.Equal(t, []domain.Location{testLocation}, device.loadedFrom)
}

func TestPersistentFile_Load_OnlyOnce(t *testing.T) {
	device := newMockSaveDevice()
	device.files[testLocation] = []byte("alice=100")
	rec := &transferRecorder{}
	f := newInitialisedFile(t, device, rec)

	for i := 0; i < 5; i++ {
		f.Load()
	}

	assert.True(t, f.Loaded())
	assert.Equal(t, 1, rec.reads)
	assert.Equal(t, 1, device.existsCalls)
	assert.Equal(t, 1, device.loadCalls)
}

func TestPersistentFile_Load_AbsentFile(t *testing.T) {
	device := newMockSaveDevice()
	rec := &transferRecorder{}
	f := newInitialisedFile(t, device, rec)

	f.Load()
	f.Load()

	assert.True(t, f.Loaded())
	assert.Equal(t, 0, rec.reads)
	assert.Equal(t, 0, device.loadCalls)
	assert.Equal(t, 1, device.existsCalls, "absence is not retried")
}

func TestPersistentFile_Load_ReadErrorIsRetried(t *testing.T) {
	buf := captureLogs(t)
	device := newMockSaveDevice()
	device.files[testLocation] = []byte("alice=100")
	rec := &transferRecorder{readErr: errors.New("corrupt payload")}
	f := newInitialisedFile(t, device, rec)

	f.Load()

	assert.False(t, f.Loaded())
	assert.Equal(t, 1, rec.reads)
	assert.Contains(t, buf.String(), "corrupt payload")

	rec.readErr = nil
	f.Load()

	assert.True(t, f.Loaded())
	assert.Equal(t, 2, rec.reads)
	assert.Equal(t, "alice=100", rec.state)
}

func TestPersistentFile_Load_ExistsErrorIsRetried(t *testing.T) {
	device := newMockSaveDevice()
	device.existsErr = errors.New("device unplugged")
	rec := &transferRecorder{}
	f := newInitialisedFile(t, device, rec)

	f.Load()
	assert.False(t, f.Loaded())
	assert.Equal(t, 0, rec.reads)

	device.existsErr = nil
	f.Load()
	assert.True(t, f.Loaded())
	assert.Equal(t, 2, device.existsCalls)
}

func TestPersistentFile_Load_DeviceLoadError(t *testing.T) {
	device := newMockSaveDevice()
	device.files[testLocation] = []byte("x")
	device.loadErr = errors.New("read failed")
	rec := &transferRecorder{}
	f := newInitialisedFile(t, device, rec)

	assert.NotPanics(t, f.Load)
	assert.False(t, f.Loaded())
}

func TestPersistentFile_Load_PanickingTransferIsContained(t *testing.T) {
	buf := captureLogs(t)
	device := newMockSaveDevice()
	device.files[testLocation] = []byte("x")
	f := NewPersistentFile(testLocation, nil, func(io.Reader) error {
		panic("bad schema")
	})
	require.NoError(t, f.Initialize(&mockAppContext{device: device}))

	assert.NotPanics(t, f.Load)
	assert.False(t, f.Loaded())
	assert.Contains(t, buf.String(), "bad schema")
}

func TestPersistentFile_Load_LogsSuccess(t *testing.T) {
	buf := captureLogs(t)
	device := newMockSaveDevice()
	rec := &transferRecorder{}
	f := newInitialisedFile(t, device, rec)

	f.Load()

	assert.Contains(t, buf.String(), "loaded file scores/high.toml")
}

func TestPersistentFile_Load_WithoutReadTransferPanics(t *testing.T) {
	f := NewPersistentFile(testLocation, nil, nil)
	require.NoError(t, f.Initialize(&mockAppContext{device: newMockSaveDevice()}))

	assert.PanicsWithValue(t,
		"filebuddy: Load called for scores/high.toml without a read transfer",
		f.Load)
}

func TestPersistentFile_Load_BeforeInitializePanics(t *testing.T) {
	rec := &transferRecorder{}
	f := NewPersistentFile(testLocation, rec.write, rec.read)

	assert.Panics(t, f.Load)
}

// --- Save ---

func TestPersistentFile_Save_NotReady(t *testing.T) {
	device := newMockSaveDevice()
	device.ready = false
	rec := &transferRecorder{state: "alice=100"}
	var notified int
	f := newInitialisedFile(t, device, rec, WithSaveObserver(func(domain.SaveResult) {
		notified++
	}))

	f.Save()

	assert.Equal(t, 0, rec.writes)
	assert.Equal(t, 0, device.saveCalls)
	assert.Equal(t, 0, notified)
}

func TestPersistentFile_Save_Ready(t *testing.T) {
	device := newMockSaveDevice()
	rec := &transferRecorder{state: "alice=100"}
	var results []domain.SaveResult
	f := newInitialisedFile(t, device, rec, WithSaveObserver(func(r domain.SaveResult) {
		results = append(results, r)
	}))

	f.Save()

	assert.Equal(t, 1, rec.writes)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, testLocation, results[0].Location)
	assert.Equal(t, []byte("alice=100"), device.files[testLocation])
}

func TestPersistentFile_Save_WriteErrorReachesCompletionOnly(t *testing.T) {
	buf := captureLogs(t)
	device := newMockSaveDevice()
	writeErr := errors.New("encode failed")
	rec := &transferRecorder{writeErr: writeErr}
	var results []domain.SaveResult
	f := newInitialisedFile(t, device, rec, WithSaveObserver(func(r domain.SaveResult) {
		results = append(results, r)
	}))

	assert.NotPanics(t, f.Save)

	assert.Equal(t, 1, rec.writes)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, writeErr)
	assert.Contains(t, buf.String(), "encode failed")
	assert.NotContains(t, device.files, testLocation)
}

func TestPersistentFile_Save_LogsCompletion(t *testing.T) {
	buf := captureLogs(t)
	device := newMockSaveDevice()
	rec := &transferRecorder{state: "x"}
	f := newInitialisedFile(t, device, rec)

	f.Save()

	assert.Contains(t, buf.String(), "save completed: scores/high.toml")
}

func TestPersistentFile_Save_DoesNotChangeLoadedState(t *testing.T) {
	device := newMockSaveDevice()
	rec := &transferRecorder{writeErr: errors.New("encode failed")}
	f := newInitialisedFile(t, device, rec)

	f.Save()

	assert.False(t, f.Loaded())
}

func TestPersistentFile_Save_WithoutWriteTransferPanics(t *testing.T) {
	f := NewPersistentFile(testLocation, nil, nil)
	require.NoError(t, f.Initialize(&mockAppContext{device: newMockSaveDevice()}))

	assert.PanicsWithValue(t,
		"filebuddy: Save called for scores/high.toml without a write transfer",
		f.Save)
}

func TestPersistentFile_Save_BeforeInitializePanics(t *testing.T) {
	rec := &transferRecorder{}
	f := NewPersistentFile(testLocation, rec.write, rec.read)

	assert.Panics(t, f.Save)
}

func TestPersistentFile_Save_PanickingObserverIsContained(t *testing.T) {
	device := newMockSaveDevice()
	rec := &transferRecorder{state: "x"}
	var second int
	f := newInitialisedFile(t, device, rec,
		WithSaveObserver(func(domain.SaveResult) { panic("observer bug") }),
		WithSaveObserver(func(domain.SaveResult) { second++ }),
	)

	assert.NotPanics(t, f.Save)
	assert.Equal(t, 1, second)
}

func TestPersistentFile_SaveThenLoad(t *testing.T) {
	device := newMockSaveDevice()
	writer := &transferRecorder{state: "bob=42"}
	f := newInitialisedFile(t, device, writer)
	f.Save()

	reader := &transferRecorder{}
	g := newInitialisedFile(t, device, reader)
	g.Load()

	assert.True(t, g.Loaded())
	assert.Equal(t, "bob=42", reader.state)
}
