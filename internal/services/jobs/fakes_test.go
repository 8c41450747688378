package jobs

import (
	"context"
	"errors"
	"sync"
	"time"
	_ "time/tzdata"
)

var errSend = errors.New("telegram unavailable")

type sentMessage struct {
	chatID  int64
	replyTo int64
	text    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[int64]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{fail: map[int64]bool{}}
}

func (n *fakeNotifier) SendText(_ context.Context, chatID int64, text string) error {
	return n.ReplyText(context.Background(), chatID, 0, text)
}

func (n *fakeNotifier) ReplyText(_ context.Context, chatID, replyTo int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail[chatID] {
		return errSend
	}
	n.sent = append(n.sent, sentMessage{chatID: chatID, replyTo: replyTo, text: text})
	return nil
}

func (n *fakeNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (a *fakeAlerter) SendAlert(_ context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, message)
	return nil
}

func (a *fakeAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.alerts)
}

// scriptedJob падает первые failures раз, затем выполняется успешно
type scriptedJob struct {
	mu       sync.Mutex
	name     string
	failures int
	runs     int
	every    time.Duration
}

func (j *scriptedJob) Name() string { return j.name }

func (j *scriptedJob) NextRun(now time.Time) time.Time { return now.Add(j.every) }

func (j *scriptedJob) Run(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs++
	if j.runs <= j.failures {
		return errors.New("attempt failed")
	}
	return nil
}

func (j *scriptedJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}
