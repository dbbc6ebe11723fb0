package portal

import (
	"context"
	"errors"
	"testing"

	"payslipsync/internal/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentsTBody = `<tbody>
<tr><td class="icon_font_grid">&#xe001;</td><td>A</td><td>Libro unico del lavoro</td><td>20-03-2024 Cedolino marzo</td><td><a onclick="window.open('/doc?id=1')">apri</a></td></tr>
<tr><td class="icon_font_grid">&#xe001;</td><td>B</td><td>CU</td><td>10-03-2024 Certificazione unica</td><td><a onclick="window.open('/doc?id=2')">apri</a></td></tr>
<tr><td class="icon_font_grid">&#xe001;</td><td>C</td><td><span>Libro unico</span></td><td><b>05-03-2024</b> Cedolino febbraio</td><td><a onclick="window.open('/doc?id=3')">apri</a></td></tr>
<tr><td colspan="4">nessun altro documento</td></tr>
</tbody>`

func labels(rows []reconcile.RemoteRow) []interface{} {
	out := make([]interface{}, len(rows))
	for i, r := range rows {
		if r.Label != nil {
			out[i] = *r.Label
		}
	}
	return out
}

func TestParseDocumentTable(t *testing.T) {
	rows, err := parseDocumentTable(documentsTBody)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	for i, r := range rows {
		assert.Equal(t, i, r.Index)
	}
	assert.Equal(t, []interface{}{
		"20-03-2024 Cedolino marzo",
		nil,
		"05-03-2024 Cedolino febbraio",
		nil,
	}, labels(rows))
}

func TestParseDocumentTable_FullTableMarkup(t *testing.T) {
	rows, err := parseDocumentTable("<table>" + documentsTBody + "</table>")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestParseDocumentTable_KeepsLabelVerbatim(t *testing.T) {
	rows, err := parseDocumentTable(`<tbody><tr><td></td><td></td><td>Libro unico</td><td> 27-06-2022  Cedolino </td></tr></tbody>`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Label)
	assert.Equal(t, " 27-06-2022  Cedolino ", *rows[0].Label)
}

func TestParseDocumentTable_Empty(t *testing.T) {
	rows, err := parseDocumentTable("<tbody></tbody>")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestListerList(t *testing.T) {
	_, frame := newFakePortal()
	frame.tableHTML = documentsTBody

	rows, err := NewLister(testConfig(t), nil).List(context.Background(), frame)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, []string{"html " + documentsTableXPath}, *frame.log)
}

func TestListerList_TableNeverAppears(t *testing.T) {
	_, frame := newFakePortal()
	frame.htmlErr = errors.New("timeout")

	_, err := NewLister(testConfig(t), nil).List(context.Background(), frame)
	assert.ErrorIs(t, err, ErrNavigation)
}
