package http

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"franchise-catalog/internal/catalog/domain/model"
	"franchise-catalog/internal/shared/logger"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeChangeSource struct {
	ch        chan *model.ChangeEvent
	cancelled chan struct{}
	once      sync.Once
}

func newFakeChangeSource() *fakeChangeSource {
	return &fakeChangeSource{
		ch:        make(chan *model.ChangeEvent, 8),
		cancelled: make(chan struct{}),
	}
}

func (f *fakeChangeSource) Subscribe(id string) (<-chan *model.ChangeEvent, func()) {
	return f.ch, func() { f.once.Do(func() { close(f.cancelled) }) }
}

func startLiveServer(t *testing.T, source ChangeSource) string {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	NewLiveChangesHandler(source, logger.NewZapLoggerFrom(zaptest.NewLogger(t))).RegisterRoutes(app.Group("/api"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return fmt.Sprintf("ws://%s/api/changes/live", ln.Addr().String())
}

func readLive(t *testing.T, conn *websocket.Conn) LiveMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg LiveMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestLiveChanges_StreamsEvents(t *testing.T) {
	source := newFakeChangeSource()
	url := startLiveServer(t, source)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readLive(t, conn)
	assert.Equal(t, "subscribed", hello.Type)

	source.ch <- &model.ChangeEvent{Entity: model.EntityProduct, Action: model.ActionUpdated, EntityID: "p-1"}
	msg := readLive(t, conn)
	assert.Equal(t, "product.updated", msg.Type)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "p-1", data["entityId"])
}

func TestLiveChanges_EntityFilter(t *testing.T) {
	source := newFakeChangeSource()
	url := startLiveServer(t, source)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?entity=branch", nil)
	require.NoError(t, err)
	defer conn.Close()
	readLive(t, conn)

	source.ch <- &model.ChangeEvent{Entity: model.EntityProduct, Action: model.ActionCreated, EntityID: "p-1"}
	source.ch <- &model.ChangeEvent{Entity: model.EntityBranch, Action: model.ActionDeleted, EntityID: "b-1"}

	msg := readLive(t, conn)
	assert.Equal(t, "branch.deleted", msg.Type)
}

func TestLiveChanges_DisconnectCancelsSubscription(t *testing.T) {
	source := newFakeChangeSource()
	url := startLiveServer(t, source)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	readLive(t, conn)
	require.NoError(t, conn.Close())

	select {
	case <-source.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription was not cancelled after disconnect")
	}
}

func TestLiveChanges_PlainRequestNeedsUpgrade(t *testing.T) {
	app := newTestApp(t, &stubUsecase{}, nil)
	NewLiveChangesHandler(newFakeChangeSource(), logger.NewZapLoggerFrom(zaptest.NewLogger(t))).RegisterRoutes(app.Group("/api"))

	status, _, _ := doRequest(t, app, fiber.MethodGet, "/api/changes/live", "")
	assert.Equal(t, fiber.StatusUpgradeRequired, status)
}
