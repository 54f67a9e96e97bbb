package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dbertolani/noise-guard/pkg/directory"
	"github.com/dbertolani/noise-guard/pkg/models"
	"github.com/dbertolani/noise-guard/pkg/store"
)

// memState is an in-memory stand-in for the postgres stores, mirroring
// their conflict and rate-limit semantics.
type memState struct {
	mu            sync.Mutex
	nodes         map[string]*models.Node
	tokens        map[string]*models.LinkToken
	bindings      []*models.NodeChatMapping
	windows       map[string]*models.HourlyWindow
	notifications []*models.Notification
	nextNotifID   int64
}

func newMemState() *memState {
	return &memState{
		nodes:   map[string]*models.Node{},
		tokens:  map[string]*models.LinkToken{},
		windows: map[string]*models.HourlyWindow{},
	}
}

func (m *memState) asStores() *store.Stores {
	return &store.Stores{
		Nodes:         memNodes{m},
		Bindings:      memBindings{m},
		LinkTokens:    memTokens{m},
		Windows:       memWindows{m},
		Notifications: memNotifications{m},
	}
}

func (m *memState) addToken(tok string, chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tok] = &models.LinkToken{Token: tok, ChatID: chatID, CreatedAt: time.Now().UTC()}
}

func (m *memState) upsertLocked(node *models.Node) {
	existing, ok := m.nodes[node.NodeNum]
	if !ok {
		clone := *node
		m.nodes[node.NodeNum] = &clone
		return
	}
	if node.ShortName != nil {
		existing.ShortName = node.ShortName
	}
	if node.LongName != nil {
		existing.LongName = node.LongName
	}
	if node.LoraItaliaID != nil {
		existing.LoraItaliaID = node.LoraItaliaID
	}
	existing.UpdatedAt = node.UpdatedAt
}

func windowKey(nodeNum string, start time.Time) string {
	return fmt.Sprintf("%s|%d", nodeNum, start.Unix())
}

type memNodes struct{ *memState }

func (m memNodes) Get(nodeNum string) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodes[nodeNum], nil
}


func (m memNodes) EnsureExists(nodeNum string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[nodeNum]; !ok {
		m.nodes[nodeNum] = &models.Node{NodeNum: nodeNum, CreatedAt: now, UpdatedAt: now}
	}
	return nil
}

func (m memNodes) Upsert(node *models.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertLocked(node)
	return nil
}

func (m memNodes) ListOverview() ([]*models.NodeOverview, error) { return nil, nil }

type memBindings struct{ *memState }

func (m memBindings) BindWithToken(tok string, node *models.Node) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lt, ok := m.tokens[tok]
	if !ok || lt.ConsumedAt != nil {
		return 0, false, nil
	}
	now := time.Now().UTC()
	lt.ConsumedAt = &now
	m.upsertLocked(node)
	for _, b := range m.bindings {
		if b.NodeNum == node.NodeNum && b.ChatID == lt.ChatID {
			b.VerifiedAt = now
			return lt.ChatID, true, nil
		}
	}
	m.bindings = append(m.bindings, &models.NodeChatMapping{
		ID: int64(len(m.bindings) + 1), NodeNum: node.NodeNum, ChatID: lt.ChatID,
		CreatedAt: now, VerifiedAt: now,
	})
	return lt.ChatID, true, nil
}

func (m memBindings) GetChatsForNode(nodeNum string) ([]*models.ChatBinding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ChatBinding
	for _, b := range m.bindings {
		if b.NodeNum != nodeNum {
			continue
		}
		name := nodeNum
		if n := m.nodes[nodeNum]; n != nil {
			name = n.DisplayName()
		}
		if b.LocalName != nil && *b.LocalName != "" {
			name = *b.LocalName
		}
		out = append(out, &models.ChatBinding{ChatID: b.ChatID, DisplayName: name})
	}
	return out, nil
}

func (m memBindings) ListForChat(chatID int64) ([]*models.NodeChatMapping, error) {
	return nil, nil
}

func (m memBindings) SetLocalName(nodeNum string, chatID int64, localName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bindings {
		if b.NodeNum == nodeNum && b.ChatID == chatID {
			b.LocalName = &localName
		}
	}
	return nil
}

func (m memBindings) Unbind(nodeNum string, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.bindings {
		if b.NodeNum == nodeNum && b.ChatID == chatID {
			m.bindings = append(m.bindings[:i], m.bindings[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type memTokens struct{ *memState }

func (m memTokens) Create(chatID int64) (*models.LinkToken, error) {
	return nil, fmt.Errorf("not used in tests")
}

func (m memTokens) Get(tok string) (*models.LinkToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lt, ok := m.tokens[tok]
	if !ok {
		return nil, nil
	}
	clone := *lt
	return &clone, nil
}

func (m memTokens) ListForChat(chatID int64) ([]*models.LinkToken, error) { return nil, nil }

type memWindows struct{ *memState }

func (m memWindows) Increment(nodeNum string, windowStart, windowEnd time.Time, category models.PacketCategory, now time.Time) (*models.HourlyWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := windowKey(nodeNum, windowStart)
	w, ok := m.windows[key]
	if !ok {
		w = &models.HourlyWindow{NodeNum: nodeNum, WindowStart: windowStart, WindowEnd: windowEnd}
		m.windows[key] = w
	}
	w.TotalCount++
	switch category {
	case models.CategoryPosition:
		w.PositionCount++
	case models.CategoryNodeInfo:
		w.NodeInfoCount++
	case models.CategoryTelemetry:
		w.TelemetryCount++
	case models.CategoryText:
		w.TextCount++
	default:
		w.OtherCount++
	}
	w.LastUpdatedAt = now
	clone := *w
	return &clone, nil
}

func (m memWindows) Get(nodeNum string, windowStart time.Time) (*models.HourlyWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[windowKey(nodeNum, windowStart)]
	if !ok {
		return nil, nil
	}
	clone := *w
	return &clone, nil
}

func (m memWindows) TopForWindow(windowStart time.Time, limit int) ([]*models.HourlyWindow, error) {
	return nil, nil
}

type memNotifications struct{ *memState }

func (m memNotifications) CreateIfDue(n *models.Notification, interval time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.notifications {
		if existing.NodeNum == n.NodeNum &&
			existing.WindowStart.Equal(n.WindowStart) &&
			existing.CreatedAt.After(n.CreatedAt.Add(-interval)) {
			return false, nil
		}
	}
	m.nextNotifID++
	clone := *n
	clone.ID = m.nextNotifID
	m.notifications = append(m.notifications, &clone)
	return true, nil
}

func (m memNotifications) GetPending() ([]*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Notification
	for _, n := range m.notifications {
		if !n.Processed {
			clone := *n
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m memNotifications) MarkProcessed(id int64, sendErr *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id {
			n.Processed = true
			n.Error = sendErr
		}
	}
	return nil
}

func (m memNotifications) ListRecent(limit int) ([]*models.Notification, error) { return nil, nil }

type sentMessage struct {
	chatID int64
	text   string
}

// fakeSender records outgoing messages and can simulate per-chat failures.
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]error
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[chatID]; ok {
		return err
	}
	f.sent = append(f.sent, sentMessage{chatID, text})
	return nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeDirectory struct {
	details map[string]*directory.NodeDetails
	err     error
}

func (f *fakeDirectory) Lookup(nodeNum string) (*directory.NodeDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.details[nodeNum], nil
}
