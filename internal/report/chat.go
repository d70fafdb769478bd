// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vqtrack/vqtrack/internal/domain"
	"github.com/vqtrack/vqtrack/internal/stats"
)

// ChatSummary renders the share-to-chat text block: headline totals, the
// model breakdown and the top three defect descriptions. The model and
// defect blocks are rebuilt from the card-filtered record sets so they stay
// on the pinned area even when the chart scope widens to the whole plant,
// and carry no area tags.
func ChatSummary(s stats.Statistics, area domain.Area, now time.Time) string {
	label := AreaLabel(area)
	dateStr := now.Format("02/01/2006")

	releasedItems := 0
	for _, p := range s.FilteredPass {
		if p.Area == domain.AreaInspecaoOffline && p.ReleaseNote != "" {
			releasedItems++
		}
	}
	for _, d := range s.FilteredDefects {
		if d.Area == domain.AreaInspecaoOffline && d.ReleaseNote != "" {
			releasedItems++
		}
	}

	okByModel := make(map[domain.CarModel]int)
	defByModel := make(map[domain.CarModel]int)
	for _, p := range s.FilteredPass {
		okByModel[p.Model] += p.Quantity
	}
	for _, d := range s.FilteredDefects {
		defByModel[d.Model] += d.Quantity
	}
	var modelLines []string
	for _, m := range domain.Models {
		if okByModel[m] == 0 && defByModel[m] == 0 {
			continue
		}
		modelLines = append(modelLines,
			fmt.Sprintf("*%s*: OK: %d | Def: %d", m, okByModel[m], defByModel[m]))
	}

	topBlock := strings.Join(topDefectLines(s.FilteredDefects, 3), "\n")
	if topBlock == "" {
		topBlock = "Nenhum defeito registrado"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚀 *Centro de Qualidade VQ - Setor: %s*\n", label)
	fmt.Fprintf(&b, "📅 *Data:* %s\n\n", dateStr)
	fmt.Fprintf(&b, "✅ *Produção Total:* %d unidades\n", s.TotalOK)
	fmt.Fprintf(&b, "⚠️ *Defeitos Totais:* %d ocorrências\n", s.TotalDefects)
	fmt.Fprintf(&b, "🔄 *Reinspeções:* %d veículos\n", s.TotalReinspections)
	fmt.Fprintf(&b, "📦 *Inspeção OffLine:* %d itens liberados\n", releasedItems)
	fmt.Fprintf(&b, "⏱️ *Parada Total:* %s horas\n\n", s.TotalDowntimeHours)
	fmt.Fprintf(&b, "📊 *Resumo por Modelo:*\n%s\n\n", strings.Join(modelLines, "\n"))
	fmt.Fprintf(&b, "🔝 *Top 3 Defeitos:*\n%s\n\n", topBlock)
	fmt.Fprintf(&b, "🛑 *Eventos de Parada:* %d\n\n", len(s.FilteredDowntime))
	b.WriteString("_Relatório filtrado via VQ Management System_")

	return b.String()
}

func topDefectLines(defects []domain.DefectRecord, limit int) []string {
	grouped := make(map[string]int)
	for _, d := range defects {
		if d.Quantity <= 0 {
			continue
		}
		grouped[strings.ToUpper(strings.TrimSpace(d.DefectType))] += d.Quantity
	}

	type entry struct {
		name string
		qty  int
	}
	ranked := make([]entry, 0, len(grouped))
	for name, qty := range grouped {
		ranked = append(ranked, entry{name, qty})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].qty != ranked[j].qty {
			return ranked[i].qty > ranked[j].qty
		}
		return ranked[i].name < ranked[j].name
	})

	var lines []string
	for i, e := range ranked {
		if i == limit {
			break
		}
		lines = append(lines, fmt.Sprintf("%dº %s (%d)", i+1, e.name, e.qty))
	}
	return lines
}
