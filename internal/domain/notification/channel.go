package notification

import (
	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/domain/reseller"
)

type ChannelKind string

const (
	ChannelEmbedded    ChannelKind = "embedded"
	ChannelResellerBot ChannelKind = "reseller_bot"
	ChannelDefaultBot  ChannelKind = "default_bot"
)

// BotCredentials identify an embedded bot module.
type BotCredentials struct {
	Token    string
	Username string
}

// Channel is the bot a message about a batch must be sent through.
// Token is empty for ChannelDefaultBot; the sender fills in the configured one.
type Channel struct {
	Kind  ChannelKind
	Token string
	Bot   BotCredentials
}

func Embedded(creds BotCredentials) Channel {
	return Channel{Kind: ChannelEmbedded, Token: creds.Token, Bot: creds}
}

func ResellerBot(token string) Channel {
	return Channel{Kind: ChannelResellerBot, Token: token}
}

func DefaultBot() Channel {
	return Channel{Kind: ChannelDefaultBot}
}

// ResolveChannel picks the module bot the batch was sold through, then the
// reseller's own bot, then the default bot. reseller and module may be nil.
func ResolveChannel(batch *pack.PackBatch, r *reseller.Reseller, module *reseller.BotModule) Channel {
	if batch != nil && batch.SoldViaModule() && module != nil && module.BotToken() != "" {
		return Embedded(BotCredentials{Token: module.BotToken(), Username: module.BotUsername()})
	}
	if r != nil && r.HasOwnBot() {
		return ResellerBot(r.BotToken())
	}
	return DefaultBot()
}
