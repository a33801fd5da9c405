package exchanges

// centralizedAllowList names well-known centralized exchanges and their
// aliases. Checked before the keyword list so CEXes whose names embed
// DEX-like substrings are never misclassified.
var centralizedAllowList = []string{
	"binance",
	"coinbase",
	"kraken",
	"okx",
	"okex",
	"bybit",
	"kucoin",
	"gate",
	"gateio",
	"huobi",
	"htx",
	"bitfinex",
	"bitstamp",
	"gemini",
	"crypto.com",
	"crypto_com",
	"mexc",
	"bitget",
	"upbit",
	"bithumb",
	"coinone",
	"korbit",
	"bitflyer",
	"coincheck",
	"poloniex",
	"lbank",
	"bingx",
	"whitebit",
	"bitmart",
	"phemex",
	"deribit",
	"bitmex",
	"coinw",
	"toobit",
	"exmo",
	"cex.io",
	"bitvavo",
}

// decentralizedKeywords mark a venue as a DEX when found as a substring of
// its identifier or display name. The upstream catalog mislabels many of
// these as centralized, so keyword evidence outranks the source flag.
var decentralizedKeywords = []string{
	"uniswap",
	"sushiswap",
	"sushi",
	"pancakeswap",
	"curve",
	"balancer",
	"quickswap",
	"trader-joe",
	"traderjoe",
	"spookyswap",
	"spiritswap",
	"raydium",
	"orca",
	"osmosis",
	"serum",
	"thorchain",
	"dydx",
	"gmx",
	"1inch",
	"kyberswap",
	"kyber",
	"dodo",
	"shibaswap",
	"biswap",
	"apeswap",
	"mdex",
	"honeyswap",
	"swapr",
	"velodrome",
	"aerodrome",
	"camelot",
	"maverick",
	"wombat",
	"syncswap",
	"zkswap",
	"woofi",
	"hashflow",
	"bancor",
	"clipper",
	"platypus",
	"meteora",
	"jupiter",
	"lifinity",
	"saber",
	"pangolin",
	"astroport",
	"terraswap",
	"minswap",
	"wingriders",
	"muesliswap",
	"solidly",
	"equalizer",
	"ellipsis",
	"beethoven",
	"ref-finance",
	"dfyn",
	"dex",
	"swap",
	"amm",
	"defi",
	"v2",
	"v3",
	"v4",
}
