package agent

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/models"
)

var (
	ErrBusy         = errors.New("agent is still replying")
	ErrEmptyMessage = errors.New("message is empty")
)

const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

type Message struct {
	ID        int       `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type Options struct {
	// MinDelay and MaxDelay bound the simulated thinking time.
	MinDelay time.Duration
	MaxDelay time.Duration
	Rand     *rand.Rand
	Sleep    func(ctx context.Context, d time.Duration) error
	Now      func() time.Time
}

// Conversation is one chat transcript. While a reply is being prepared new
// input is rejected with ErrBusy.
type Conversation struct {
	mu       sync.Mutex
	opts     Options
	messages []Message
	busy     bool
	nextID   int
}

func NewConversation(opts Options) *Conversation {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	c := &Conversation{opts: opts}
	c.appendLocked(SenderAgent, Welcome)
	return c
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Messages returns the transcript so far.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Send appends the user's text, waits the thinking delay and appends the
// reply computed against items. The user message stays in the transcript
// even if ctx ends before the reply.
func (c *Conversation) Send(ctx context.Context, text string, items []models.PlacedItem) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return Message{}, ErrBusy
	}
	c.busy = true
	c.appendLocked(SenderUser, text)
	delay := c.delayLocked()
	c.mu.Unlock()

	log := logger.FromContext(ctx)
	log.Debug("agent thinking for %s", delay)
	err := c.opts.Sleep(ctx, delay)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		return Message{}, err
	}
	reply := Respond(text, items, c.opts.Rand)
	return c.appendLocked(SenderAgent, reply), nil
}

// AddAnalysis injects an analysis result as an agent message.
func (c *Conversation) AddAnalysis(caption, analysis string) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appendLocked(SenderAgent, AnalysisMessage(caption, analysis))
}

func (c *Conversation) delayLocked() time.Duration {
	span := c.opts.MaxDelay - c.opts.MinDelay
	if span <= 0 {
		return c.opts.MinDelay
	}
	return c.opts.MinDelay + time.Duration(c.opts.Rand.Int63n(int64(span)))
}

func (c *Conversation) appendLocked(sender, text string) Message {
	c.nextID++
	m := Message{ID: c.nextID, Sender: sender, Text: text, Timestamp: c.opts.Now()}
	c.messages = append(c.messages, m)
	return m
}
