package notifier

import (
	"fmt"
	"strings"
	"time"

	"TradingCore/internal/model"
)

// FormatRunReport formats a run tally for the operator chat.
func FormatRunReport(brand string, stats model.RunStats) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", brand, stats.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Tickers processados: %d\n", stats.UniqueTickers))
	b.WriteString(fmt.Sprintf("Tickers com notícias: %d\n", stats.TickersWithNews))
	b.WriteString(fmt.Sprintf("Usuários: %d\n", stats.TotalSubscribers))
	b.WriteString(fmt.Sprintf("✅ Enviados: %d\n", stats.Succeeded))
	b.WriteString(fmt.Sprintf("❌ Falhas: %d\n", stats.Failed))
	if stats.Skipped > 0 {
		b.WriteString(fmt.Sprintf("⏹ Não enviados (execução interrompida): %d\n", stats.Skipped))
	}
	b.WriteString(fmt.Sprintf("Notícias entregues: %d (média %.1f)\n", stats.NewsDelivered, stats.AverageNews()))
	if !stats.FinishedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Duração: %s\n", stats.FinishedAt.Sub(stats.StartedAt).Round(time.Second)))
	}
	if stats.RunID != "" {
		b.WriteString(fmt.Sprintf("\n<code>%s</code>", stats.RunID))
	}
	return b.String()
}
