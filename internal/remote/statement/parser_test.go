package statement_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/coinbag/internal/remote/statement"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

const contaCSV = `Consultar saldos e movimentos à ordem - 31-01-2026;"=""0000"""
Nome cliente;JOHN DOE
NIF;"=""123"""

Dados da conta
Conta;0000 - EUR - Conta Extracto
Saldo contabilístico;1.000,00 EUR

Data mov.;Data-valor;Descrição;Montante;Saldo contabilístico após movimento
30-01-2026;30-01-2026;INSTITUTO GESTAO FINA;-588,74;48.825,46
09-01-2026;09-01-2026;TFI Wise;8.608,52;52.532,78
`

func TestParse_Conta(t *testing.T) {
	entries, err := statement.Parse(strings.NewReader(contaCSV))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, date(2026, 1, 30), entries[0].Date)
	assert.Equal(t, "INSTITUTO GESTAO FINA", entries[0].Description)
	assert.Equal(t, "588.74", entries[0].Amount.String())
	assert.Equal(t, transaction.TypeExpense, entries[0].Type)

	assert.Equal(t, date(2026, 1, 9), entries[1].Date)
	assert.Equal(t, "8608.52", entries[1].Amount.String())
	assert.Equal(t, transaction.TypeIncome, entries[1].Type)
}

func TestParse_Extrato(t *testing.T) {
	csv := `Consultar extrato - 15-02-2026 : 0829015676030
Conta ;0829015676030 - EUR - Conta Extracto
Intervalo de ;01-02-2026 a 14-02-2026

Data mov. ;Data valor ;Origem ;Descrição ;Movimento ;Estorno ;Saldo contabilístico após movimento ;
13-02-2026;13-02-2026;"=""0003""";PAGAMENTO TSU ;-608,13;  ;41.393,66;
04-02-2026;04-02-2026;SIBS ;TFI Wise ;4.324,06;  ;51.302,85;
`

	entries, err := statement.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "PAGAMENTO TSU", entries[0].Description)
	assert.Equal(t, "608.13", entries[0].Amount.String())
	assert.Equal(t, transaction.TypeExpense, entries[0].Type)

	assert.Equal(t, "4324.06", entries[1].Amount.String())
	assert.Equal(t, transaction.TypeIncome, entries[1].Type)
}

func TestParse_Cartao(t *testing.T) {
	csv := `Consultar saldos e movimentos de cartões - 15-02-2026
Conta cartão ;4163 **** **** 8016 - EUR - Business Débito

Data ;Data valor ;Descrição ;Débito ;Crédito ;
16-12-2025 ;14-12-2025 ;PA GONDOMAR         GONDOMAR ;64,00 ; ;
31-12-2025 ;29-12-2025 ;REFUND AMAZON ; ;25,00 ;
 ; ; ; ;Página 1/2 ;
`

	entries, err := statement.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, date(2025, 12, 16), entries[0].Date)
	assert.Equal(t, "64", entries[0].Amount.String())
	assert.Equal(t, transaction.TypeExpense, entries[0].Type)

	assert.Equal(t, "25", entries[1].Amount.String())
	assert.Equal(t, transaction.TypeIncome, entries[1].Type)
}

func TestParse_Latin1Encoding(t *testing.T) {
	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte("Data mov.;Descrição;Montante\n30-01-2026;CAFÉ CENTRAL;-10,00\n"))
	require.NoError(t, err)

	entries, err := statement.Parse(bytes.NewReader(latin1))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "CAFÉ CENTRAL", entries[0].Description)
}

func TestParse_EdgeCases(t *testing.T) {
	type testCase struct {
		name       string
		csv        string
		wantLen    int
		wantAmount string
		wantErr    string
	}

	tests := []testCase{
		{name: "EmptyFile", csv: "", wantErr: "no known statement layout"},
		{name: "HeaderOnly", csv: "Data mov.;Data-valor;Descrição;Montante"},
		{
			name:    "MissingDescription",
			csv:     "Data mov.;Descrição;Montante\n30-01-2026;;-10,00\n",
			wantErr: "description",
		},
		{
			name:       "DifferentColumnOrder",
			csv:        "Random;MetaData\nMontante;Descrição;Data mov.;Ignored\n-10,00;TEST_ORDER;30-01-2026;XXX\n",
			wantLen:    1,
			wantAmount: "10",
		},
		{
			name:       "LargeAmount",
			csv:        "Data mov.;Descrição;Montante\n30-01-2026;BIG TRANSFER;-1.234.567,89\n",
			wantLen:    1,
			wantAmount: "1234567.89",
		},
		{
			name:       "SkipsFooterRows",
			csv:        "Data mov.;Descrição;Montante\n30-01-2026;TEST;-10,00\nTotais;;;;\n",
			wantLen:    1,
			wantAmount: "10",
		},
		{
			name: "SkipsZeroAmounts",
			csv:  "Data mov.;Descrição;Montante\n30-01-2026;NOTHING;0,00\n",
		},
		{
			name:    "GarbledAmount",
			csv:     "Data mov.;Descrição;Montante\n01-06-2023;Rent;-500,00\n02-06-2023;Groceries;-12,3O\n",
			wantErr: `row 3: invalid amount "-12,3O"`,
		},
		{
			name:    "GarbledCredit",
			csv:     "Data ;Data valor ;Descrição ;Débito ;Crédito ;\n31-12-2025 ;29-12-2025 ;REFUND ; ;2S,00 ;\n",
			wantErr: "row 2: invalid amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := statement.Parse(strings.NewReader(tt.csv))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			require.Len(t, entries, tt.wantLen)

			if tt.wantAmount != "" {
				assert.Equal(t, tt.wantAmount, entries[0].Amount.String())
			}
		})
	}
}
