// Package export ships archived events to an external log or search system.
//
// A run walks every conversation with unexported events. For each event it
// builds one record carrying the conversation name and membership as of that
// event, hands it to the Sink and only then marks the event exported. The
// emission is at most once per logical event within a run; a crash between
// Emit and MarkExported re-emits the record on the next run, so sinks should
// tolerate duplicates keyed on messageID.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/legalhold/internal/directory"
	"github.com/legalhold/internal/events"
	"github.com/legalhold/internal/logging"
	"github.com/legalhold/pkg/models"
)

// Summary counts what happened during a run or a single conversation.
type Summary struct {
	Conversations int `json:"conversations"`
	Emitted       int `json:"emitted"`
	Marked        int `json:"marked"`
	AlreadyMarked int `json:"alreadyMarked"`
	Duplicates    int `json:"duplicates"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
}

func (s *Summary) add(o Summary) {
	s.Conversations += o.Conversations
	s.Emitted += o.Emitted
	s.Marked += o.Marked
	s.AlreadyMarked += o.AlreadyMarked
	s.Duplicates += o.Duplicates
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// Exporter runs export passes.
type Exporter struct {
	log     events.ExportLog
	dir     directory.Directory
	sink    Sink
	metrics *Metrics
}

// New returns an exporter. metrics may be nil.
func New(eventLog events.ExportLog, dir directory.Directory, sink Sink, metrics *Metrics) *Exporter {
	return &Exporter{log: eventLog, dir: dir, sink: sink, metrics: metrics}
}

// Run exports every conversation with pending events. A conversation whose
// events cannot be read is reported in the returned error; the others are
// still exported.
func (x *Exporter) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	x.metrics.runStarted()

	pending, err := x.log.ListUnexported(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list conversations with pending events: %w", err)
	}
	log.Info().Int("conversations", len(pending)).Msg("Exporting conversations")

	var (
		total Summary
		errs  []error
	)
	for _, rep := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		s, err := x.ExportConversation(ctx, rep.ConversationID)
		total.add(s)
		if err != nil {
			log.Error().
				Err(err).
				Str("conversation_id", rep.ConversationID.String()).
				Msg("Export of conversation failed")
			errs = append(errs, err)
		}
	}

	x.metrics.runFinished(time.Since(start).Seconds())
	log.Info().
		Int("marked", total.Marked).
		Int("emitted", total.Emitted).
		Int("duplicates", total.Duplicates).
		Int("skipped", total.Skipped).
		Int("failed", total.Failed).
		Dur("duration", time.Since(start)).
		Msg("Finished exporting messages")

	return total, errors.Join(errs...)
}

// ExportConversation runs one export pass over a single conversation.
func (x *Exporter) ExportConversation(ctx context.Context, conversationID uuid.UUID) (Summary, error) {
	ctx, p := logging.StartPass(ctx, "export", conversationID)

	r := &run{
		conversationID: conversationID,
		identities:     directory.NewCache(x.dir),
		lookup:         x.log,
		uniques:        make(map[string]bool),
		summary:        Summary{Conversations: 1},
	}

	history, err := x.log.ListAscending(ctx, conversationID)
	if err != nil {
		return Summary{}, fmt.Errorf("list events for conversation %s: %w", conversationID, err)
	}

	// keys claimed by any exported event, so an earlier pending copy of a
	// later exported event is still a duplicate
	for _, e := range history {
		if e.Exported {
			r.uniques[dedupKey(e)] = true
		}
	}

	var (
		pending int
		last    int64
	)
	for _, e := range history {
		last = e.EventID
		if e.Exported {
			r.prime(ctx, e)
			continue
		}
		pending++
		x.process(ctx, r, e)
	}

	// events appended after the history was read
	detail, err := x.log.ListUnexportedDetail(ctx, conversationID)
	if err != nil {
		return r.summary, fmt.Errorf("list unexported events for conversation %s: %w", conversationID, err)
	}
	for _, e := range detail {
		if e.EventID > last {
			pending++
			x.process(ctx, r, e)
		}
	}

	p.Finish(ctx, map[string]interface{}{
		"pending": pending,
		"emitted": r.summary.Emitted,
		"marked":  r.summary.Marked,
	})
	return r.summary, nil
}

func (x *Exporter) process(ctx context.Context, r *run, e *models.Event) {
	logger := zerolog.Ctx(ctx).With().
		Int64("event_id", e.EventID).
		Str("type", string(e.Type)).
		Logger()

	h, ok := handlers[e.Type]
	if !ok {
		logger.Debug().Msg("Skipping unsupported event type")
		r.summary.Skipped++
		x.metrics.skip("unsupported")
		return
	}

	key := dedupKey(e)
	if r.uniques[key] {
		logger.Debug().Str("key", key).Msg("Skipping duplicate event")
		r.summary.Duplicates++
		x.metrics.duplicate()
		return
	}

	record, err := h(ctx, r, e)
	if err != nil {
		logger.Warn().Err(err).Msg("Skipping event")
		r.summary.Skipped++
		x.metrics.skip("malformed")
		return
	}
	r.stamp(record)

	if err := x.sink.Emit(ctx, record); err != nil {
		logger.Error().Err(err).Msg("Failed to emit export record")
		r.summary.Failed++
		x.metrics.failure("emit")
		return
	}
	r.uniques[key] = true
	r.summary.Emitted++
	x.metrics.emitted(string(record.Type))

	n, err := x.log.MarkExported(ctx, e.EventID)
	switch {
	case err != nil:
		logger.Error().Err(err).Msg("Failed to mark event exported")
		r.summary.Failed++
		x.metrics.failure("mark")
	case n == 0:
		logger.Info().Msg("Event already marked exported by another run")
		r.summary.AlreadyMarked++
		x.metrics.markRace()
	default:
		r.summary.Marked++
		x.metrics.markedOne()
	}
}
