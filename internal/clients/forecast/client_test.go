package forecast

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const tenJQKAPage = `<html><head><meta charset="gbk"></head><body>
<table><tr><th>机构</th></tr><tr><td>汇总</td></tr></table>
<table>
  <thead><tr><th>年度</th><th>预测机构数</th><th>最小值</th><th>均值</th><th>最大值</th></tr></thead>
  <tbody>
    <tr><td>2024</td><td>30</td><td>850.10</td><td>870.50</td><td>890.00</td></tr>
    <tr><td>2025</td><td>28</td><td>950.00</td><td>1,010.00</td><td>1100.00</td></tr>
  </tbody>
</table>
</body></html>`

const etnetPage = `<html><body>
<table><tr><td>nav</td></tr></table>
<table><tr><td>quote</td></tr></table>
<table><tr><td>summary</td></tr></table>
<table>
  <tr><th>财政年度</th><th>纯利/(亏损)  (百万元人民币)</th><th>每股盈利</th></tr>
  <tr><td>2024</td><td>180,000</td><td>19.5</td></tr>
  <tr><td>2026</td><td>231,500.5</td><td>24.1</td></tr>
</table>
</body></html>`

const etnetHKDPage = `<html><body>
<table></table><table></table><table></table>
<table>
  <tr><th>财政年度</th><th>纯利/(亏损) (百万港元)</th></tr>
  <tr><td>2025</td><td>1200</td></tr>
</table>
</body></html>`

func gbk(t *testing.T, s string) []byte {
	out, err := simplifiedchinese.GBK.NewEncoder().String(s)
	require.NoError(t, err)
	return []byte(out)
}

func newTestClient(url string) *Client {
	return NewClient(Config{TenJQKAURL: url, EtnetURL: url, Timeout: 5 * time.Second}, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestFetchForecast_TenJQKA(t *testing.T) {
	var path, referer string
	body := gbk(t, tenJQKAPage)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		referer = r.Header.Get("Referer")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).FetchForecast("SH600519")
	require.NoError(t, err)

	assert.Equal(t, "/new/600519/worth.html", path)
	assert.Equal(t, server.URL+"/600519", referer)
	assert.Equal(t, 2025, result.Year)
	// (950 + 1010) / 2 * 1e8
	assert.Equal(t, 98000000000.0, result.NetProfit)
}

func TestFetchForecast_Etnet(t *testing.T) {
	var code string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/www/sc/stocks/realtime/quote_profit.php", r.URL.Path)
		code = r.URL.Query().Get("code")
		_, _ = w.Write([]byte(etnetPage))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).FetchForecast("hk00700")
	require.NoError(t, err)
	assert.Equal(t, "00700", code)
	assert.Equal(t, 2026, result.Year)
	assert.InDelta(t, 231500.5e6, result.NetProfit, 1e-3)
}

func TestFetchForecast_EtnetHKDColumn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(etnetHKDPage))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).FetchForecast("HK09988")
	require.NoError(t, err)
	assert.Equal(t, 2025, result.Year)
	assert.Equal(t, 1200e6, result.NetProfit)
}

func TestFetchForecast_Errors(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		status int
		body   string
		want   string
	}{
		{"missing table", "SZ000858", http.StatusOK, `<table></table>`, "expected at least 2 tables"},
		{"http error", "SZ000858", http.StatusNotFound, ``, "status 404"},
		{"empty table", "hk00700", http.StatusOK, `<table></table><table></table><table></table><table><tr><th>财政年度</th></tr></table>`, "empty"},
		{"no profit column", "hk00700", http.StatusOK, `<table></table><table></table><table></table><table><tr><th>财政年度</th></tr><tr><td>2025</td></tr></table>`, "no net profit column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).FetchForecast(tt.symbol)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseTables_Nested(t *testing.T) {
	tables, err := ParseTables([]byte(`<table><tr><th>a</th></tr><tr><td><table><tr><th>x</th></tr></table> 1 </td></tr></table>`))
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, []string{"a"}, tables[0].Header)
	require.Len(t, tables[0].Rows, 1)
	assert.Equal(t, []string{"x 1"}, tables[0].Rows[0])
	assert.Equal(t, []string{"x"}, tables[1].Header)
}

func TestParseHelpers(t *testing.T) {
	v, err := parseNumber(" 1,234.5 ")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, v)

	_, err = parseNumber("--")
	assert.Error(t, err)

	for _, cell := range []string{"2025年", " 2025E ", "预测2025", "FY2025/26"} {
		y, err := parseYear(cell)
		require.NoError(t, err, cell)
		assert.Equal(t, 2025, y, cell)
	}

	_, err = parseYear("N/A")
	assert.Error(t, err)

	_, err = parseYear("25年")
	assert.Error(t, err)
}
