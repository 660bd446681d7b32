package app

import (
	"context"
	"sync"
	"time"

	"github.com/womat/debug"

	"zeusrx/pkg/message"
	"zeusrx/pkg/mqtt"
	"zeusrx/pkg/receiver"
)

// recentSize is the number of records kept in memory for the web service.
const recentSize = 100

// filter detects repeated messages. A sensor sends every message several times, in several
// frames of one transmission and in several transmissions.
//  A message is a repeat, if it is identical to the last message and arrives within the
//  repeat window after the previous copy. A window of zero disables the filter.
type filter struct {
	sync.Mutex
	window time.Duration

	last     receiver.Message
	lastSeen time.Time
	// recent is a ring of the latest records, next is the index of the oldest one
	recent []message.Record
	next   int
	count  int
}

func newFilter(window time.Duration, size int) *filter {
	return &filter{
		window: window,
		recent: make([]message.Record, size),
	}
}

// add returns the record of m and true if m is a new message.
//  For a repeat the repeat counter of the last record is increased and returned with false.
func (f *filter) add(p *receiver.Protocol, m receiver.Message, t time.Time) (message.Record, bool) {
	f.Lock()
	defer f.Unlock()

	if f.count > 0 && f.window > 0 && m == f.last && t.Sub(f.lastSeen) <= f.window {
		f.lastSeen = t
		i := (f.next + len(f.recent) - 1) % len(f.recent)
		f.recent[i].Repeats++
		return f.recent[i], false
	}

	r := message.New(p, m, t)
	f.last, f.lastSeen = m, t
	f.recent[f.next] = r
	f.next = (f.next + 1) % len(f.recent)
	if f.count < len(f.recent) {
		f.count++
	}

	return r, true
}

// latest returns up to n records, newest first.
func (f *filter) latest(n int) []message.Record {
	f.Lock()
	defer f.Unlock()

	if n > f.count {
		n = f.count
	}

	records := make([]message.Record, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, f.recent[(f.next+len(f.recent)-i)%len(f.recent)])
	}
	return records
}

// handleMessage filters the repeats and forwards a new message to the data file,
// the serial port and the mqtt broker. For a repeat only the data file is updated.
func (app *App) handleMessage(ctx context.Context, p *receiver.Protocol, m receiver.Message, t time.Time) {
	r, isNew := app.messages.add(p, m, t)
	if !isNew {
		debug.TraceLog.Printf("message %s repeated %d times", r.Data, r.Repeats)
		if app.store != nil {
			if err := app.store.SetRepeats(ctx, r.ID, r.Repeats); err != nil {
				debug.ErrorLog.Printf("update message %v: %v", r.ID, err)
			}
		}
		return
	}

	debug.DebugLog.Printf("message %s parity %d", r.Data, r.Parity)

	if app.store != nil {
		if err := app.store.Insert(ctx, r); err != nil {
			debug.ErrorLog.Printf("insert message %v: %v", r.ID, err)
		}
	}

	if app.uart != nil {
		if err := app.uart.WriteMessage(m); err != nil {
			debug.ErrorLog.Printf("serial port: %v", err)
		}
	}

	app.sendMQTT(app.config.MQTT.Topic, r)
}

// sendMQTT send the record to the mqtt broker in the configured format.
func (app *App) sendMQTT(topic string, r message.Record) {
	debug.TraceLog.Printf("prepare mqtt message %v %v", topic, r.Data)

	b, err := message.Marshal(app.config.MQTT.Format, r)
	if err != nil {
		debug.ErrorLog.Printf("sendMQTT marshal: %v", err)
		return
	}

	app.mqtt.Publish(mqtt.Message{
		Qos:      0,
		Retained: false,
		Topic:    topic,
		Payload:  b,
	})
}
