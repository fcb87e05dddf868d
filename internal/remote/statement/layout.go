package statement

type amountMode int

const (
	// One signed column, e.g. "Montante" = "-10,00".
	amountSigned amountMode = iota
	// Separate "Débito" and "Crédito" columns.
	amountSplit
)

// layout describes the header of one CGD export format.
type layout struct {
	name      string
	dateCol   string
	descCol   string
	mode      amountMode
	amountCol string
	debitCol  string
	creditCol string
}

func (l layout) requiredCols() []string {
	if l.mode == amountSplit {
		return []string{l.dateCol, l.descCol, l.debitCol, l.creditCol}
	}

	return []string{l.dateCol, l.descCol, l.amountCol}
}

// layouts are tried in order; more specific headers first.
var layouts = []layout{
	{
		name:      "cartão",
		dateCol:   "Data",
		descCol:   "Descrição",
		mode:      amountSplit,
		debitCol:  "Débito",
		creditCol: "Crédito",
	},
	{
		name:      "extrato",
		dateCol:   "Data mov.",
		descCol:   "Descrição",
		mode:      amountSigned,
		amountCol: "Movimento",
	},
	{
		name:      "conta",
		dateCol:   "Data mov.",
		descCol:   "Descrição",
		mode:      amountSigned,
		amountCol: "Montante",
	},
}
