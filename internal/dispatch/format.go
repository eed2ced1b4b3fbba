package dispatch

import (
	"fmt"
	"math"
	"strings"

	"github.com/rank11/sol-wallet-monitor/internal/market"
	"github.com/rank11/sol-wallet-monitor/internal/models"
)

// FormatMessage renders a TradeEvent as a Telegram HTML message.
func FormatMessage(event *models.TradeEvent) string {
	var b strings.Builder

	switch event.Kind {
	case models.EventSwap:
		formatSwap(&b, event)
	case models.EventWrap:
		formatWrap(&b, event)
	default:
		formatTransfer(&b, event)
	}

	fmt.Fprintf(&b, "\n<a href=\"https://solscan.io/tx/%s\">View on Solscan</a>", event.Signature)
	return b.String()
}

func formatSwap(b *strings.Builder, event *models.TradeEvent) {
	action := "sold"
	icon := "🔴"
	if event.IsBuy {
		action = "bought"
		icon = "🟢"
	}

	fmt.Fprintf(b, "%s <b>%s</b> %s %s %s for %s\n",
		icon,
		event.Wallet.DisplayName(),
		action,
		market.FormatTokenAmount(math.Abs(event.TokenDelta)),
		tokenSymbol(event),
		market.FormatSOL(math.Abs(event.NativeDelta)),
	)

	if event.Market != nil {
		if event.Market.PriceUSD != "" {
			fmt.Fprintf(b, "Price: %s", market.FormatUSD(event.Market.PriceUSD))
		}
		if event.Market.FDV > 0 {
			fmt.Fprintf(b, " | FDV: %s", market.FormatUSDValue(event.Market.FDV))
		}
		if event.Market.LiquidityUSD > 0 {
			fmt.Fprintf(b, " | Liq: %s", market.FormatUSDValue(event.Market.LiquidityUSD))
		}
		b.WriteString("\n")
	}

	if event.Risk != nil {
		fmt.Fprintf(b, "Risk: %s (%.0f)", event.Risk.Tier, event.Risk.Score)
		if event.Risk.IsNewToken {
			b.WriteString(" 🆕")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "<code>%s</code>\n", event.TokenMint)
}

func formatTransfer(b *strings.Builder, event *models.TradeEvent) {
	direction := "sent"
	icon := "📤"
	if event.IsIncoming {
		direction = "received"
		icon = "📥"
	}
	fmt.Fprintf(b, "%s <b>%s</b> %s %s\n",
		icon,
		event.Wallet.DisplayName(),
		direction,
		market.FormatSOL(math.Abs(event.NativeDelta)),
	)
}

func formatWrap(b *strings.Builder, event *models.TradeEvent) {
	action := "unwrapped"
	if event.IsWrapping {
		action = "wrapped"
	}
	fmt.Fprintf(b, "🔄 <b>%s</b> %s %s\n",
		event.Wallet.DisplayName(),
		action,
		market.FormatSOL(math.Abs(event.WrappedDelta)),
	)
}

func tokenSymbol(event *models.TradeEvent) string {
	if event.Market != nil && event.Market.Symbol != "" {
		return event.Market.Symbol
	}
	return models.ShortAddress(event.TokenMint)
}
