package models

// bseToNSE maps BSE scrip codes to their NSE tickers. Live quotes prefer the
// NSE listing, so holdings recorded only under a BSE code are translated
// through this table before falling back to a .BO symbol.
var bseToNSE = map[string]string{
	"500002": "ABB",
	"500010": "HDFC",
	"500034": "BAJFINANCE",
	"500087": "CIPLA",
	"500112": "SBIN",
	"500114": "TITAN",
	"500180": "HDFCBANK",
	"500182": "HEROMOTOCO",
	"500209": "INFY",
	"500247": "KOTAKBANK",
	"500251": "TRENT",
	"500295": "VEDL",
	"500300": "GRASIM",
	"500312": "ONGC",
	"500325": "RELIANCE",
	"500400": "TATAPOWER",
	"500470": "TATASTEEL",
	"500510": "LT",
	"500520": "M&M",
	"500570": "TATAMOTORS",
	"500696": "HINDUNILVR",
	"500790": "NESTLEIND",
	"500820": "ASIANPAINT",
	"500875": "ITC",
	"507685": "WIPRO",
	"511243": "CHOLAFIN",
	"524715": "SUNPHARMA",
	"526371": "NMDC",
	"532174": "ICICIBANK",
	"532215": "AXISBANK",
	"532281": "HCLTECH",
	"532454": "BHARTIARTL",
	"532500": "MARUTI",
	"532538": "ULTRACEMCO",
	"532540": "TCS",
	"532555": "NTPC",
	"532755": "TECHM",
	"532921": "ADANIPORTS",
	"532977": "BAJAJ-AUTO",
	"533278": "COALINDIA",
	"533398": "MUTHOOTFIN",
	"540005": "LTIM",
	"540719": "SBILIFE",
	"543220": "HAPPSTMNDS",
	"543320": "ZOMATO",
	"543396": "ONE97",
}

// NSETickerForBSECode returns the NSE ticker listed for a BSE scrip code.
func NSETickerForBSECode(code string) (string, bool) {
	ticker, ok := bseToNSE[code]
	return ticker, ok
}

// Quote symbol suffixes for the two exchanges.
const (
	nseSuffix = ".NS"
	bseSuffix = ".BO"
)

/// QuoteSymbol derives the live-quote symbol for a holding: the NSE code when
// present, else the NSE ticker mapped from the BSE code, else the BSE code
// itself on the .BO suffix as a last resort. Empty when the holding carries
// no exchange code at all.
func QuoteSymbol(h *Holding) string {
	if h.NSECode != "" {
		return h.NSECode + nseSuffix
	}
	if h.BSECode != nil && *h.BSECode != "" {
		if ticker, ok := NSETickerForBSECode(*h.BSECode); ok {
			return ticker + nseSuffix
		}
		return *h.BSECode + bseSuffix
	}
	return ""
}

// IsNSESymbol reports whether a derived quote symbol refers to the primary
// (NSE) exchange.
func IsNSESymbol(symbol string) bool {
	return len(symbol) > len(nseSuffix) && symbol[len(symbol)-len(nseSuffix):] == nseSuffix
}
