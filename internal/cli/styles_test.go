package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"conti/internal/budget"
	"conti/internal/core"
)

func TestFormatMoneyKeepsAmount(t *testing.T) {
	assert.Contains(t, FormatMoney(core.Cents(1250), core.Expense), "12.50")
	assert.Contains(t, FormatMoney(core.Cents(1250), core.Income), "+12.50")
	assert.Contains(t, FormatMoney(core.Cents(-300), core.Expense), "-3.00")
}

func TestFormatLevel(t *testing.T) {
	assert.Contains(t, FormatLevel(budget.LevelOver), "over")
	assert.Contains(t, FormatLevel(budget.LevelNear), "near")
	assert.Contains(t, FormatLevel(budget.LevelOK), "ok")
	assert.Contains(t, FormatLevel(budget.LevelNone), "-")
}

func TestRenderBoxContainsContent(t *testing.T) {
	out := RenderBox("Settlement 2024-03", "Rosângela pays Junior 50.00")
	assert.Contains(t, out, "Settlement 2024-03")
	assert.Contains(t, out, "Rosângela pays Junior 50.00")
}
