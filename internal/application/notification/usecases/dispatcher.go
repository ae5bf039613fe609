package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/domain/reseller"
	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// Dispatcher delivers notices about a batch's keys through the bot the batch
// was sold with. It never fails: every problem becomes a technical_error result.
type Dispatcher struct {
	batches   BatchReader
	resellers ResellerReader
	renderer  MessageRenderer
	sender    MessageSender
	metrics   *metrics.Metrics
	logger    logger.Interface
}

func NewDispatcher(
	batches BatchReader,
	resellers ResellerReader,
	renderer MessageRenderer,
	sender MessageSender,
	m *metrics.Metrics,
	logger logger.Interface,
) *Dispatcher {
	return &Dispatcher{
		batches:   batches,
		resellers: resellers,
		renderer:  renderer,
		sender:    sender,
		metrics:   m,
		logger:    logger,
	}
}

func (d *Dispatcher) Send(ctx context.Context, batchID uint, n notification.Notice) notification.Result {
	result := d.send(ctx, batchID, n)
	// Parts delivered by an earlier attempt stay delivered.
	result.PartsSent = max(result.PartsSent, n.SkipParts)
	d.metrics.Notification(result.Outcome.String())
	if result.Err != nil {
		d.logger.Warnw("notification not delivered",
			"batch_id", batchID,
			"template", n.Template,
			"channel", result.Channel,
			"outcome", result.Outcome,
			"error", result.Err,
		)
	}
	return result
}

func (d *Dispatcher) send(ctx context.Context, batchID uint, n notification.Notice) notification.Result {
	if n.Recipient == 0 {
		return failed(notification.DefaultBot().Kind, fmt.Errorf("notice has no recipient"))
	}

	batch, res, module, err := d.lookup(ctx, batchID)
	if err != nil {
		return failed(notification.DefaultBot().Kind, err)
	}
	channel := notification.ResolveChannel(batch, res, module)

	var lang, footer string
	if res != nil {
		lang = res.Lang()
		if n.Template == notification.TemplateKeyReplaced {
			footer = res.Instructions()
		}
	}

	msg, err := d.renderer.Render(n, lang, footer)
	if err != nil {
		return failed(channel.Kind, fmt.Errorf("failed to render notice: %w", err))
	}
	msg.SkipParts = n.SkipParts

	delivery, err := d.sender.Deliver(ctx, channel.Token, msg)
	return notification.Result{
		Outcome:   delivery.Outcome,
		PartsSent: delivery.PartsSent,
		Channel:   channel.Kind,
		Err:       err,
	}
}

// lookup loads what ResolveChannel needs. A batch without a reseller or
// module row still resolves, to the default bot.
func (d *Dispatcher) lookup(ctx context.Context, batchID uint) (*pack.PackBatch, *reseller.Reseller, *reseller.BotModule, error) {
	batch, err := d.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, nil, nil, err
	}
	if batch == nil {
		return nil, nil, nil, fmt.Errorf("batch %d not found", batchID)
	}

	res, err := d.resellers.GetByID(ctx, batch.ResellerID())
	if err != nil {
		return nil, nil, nil, err
	}

	var module *reseller.BotModule
	if batch.ModuleID() != nil {
		module, err = d.resellers.GetModuleByID(ctx, *batch.ModuleID())
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return batch, res, module, nil
}

func failed(kind notification.ChannelKind, err error) notification.Result {
	return notification.Result{Outcome: notification.OutcomeTechnicalError, Channel: kind, Err: err}
}
