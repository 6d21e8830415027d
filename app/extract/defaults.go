package extract

const (
	FieldTitle       = "title"
	FieldPrice       = "price"
	FieldArea        = "area"
	FieldPlotArea    = "plot_area"
	FieldRooms       = "rooms"
	FieldLocation    = "location"
	FieldDescription = "description"

	FieldRawParameters = "raw_parameters"
)

var Fields = []string{
	FieldTitle,
	FieldPrice,
	FieldArea,
	FieldPlotArea,
	FieldRooms,
	FieldLocation,
	FieldDescription,
}

// Synonym keys referenced by param locators.
const (
	ParamPrice    = "price"
	ParamArea     = "area"
	ParamPlotArea = "plot_area"
	ParamRooms    = "rooms"
)

var defaultChains = map[string][]LocatorSpec{
	FieldTitle: {
		{Name: "heading", Kind: KindText, Selector: "h1"},
		{Name: "header-data-attr", Kind: KindText, Selector: `[data-cy="adPageAdTitle"]`},
		{Name: "page-title", Kind: KindPageTitle},
	},
	FieldPrice: {
		{Name: "price-data-attr", Kind: KindText, Selector: `[data-cy="adPageHeaderPrice"]`},
		{Name: "price-aria-label", Kind: KindText, Selector: `[aria-label="Cena"]`},
		{Name: "price-table", Kind: KindParam, Param: ParamPrice},
		{Name: "price-text-scan", Kind: KindCurrency},
	},
	FieldArea: {
		{Name: "area-table", Kind: KindParam, Param: ParamArea},
	},
	FieldPlotArea: {
		{Name: "plot-area-table", Kind: KindParam, Param: ParamPlotArea},
	},
	FieldRooms: {
		{Name: "rooms-table", Kind: KindParam, Param: ParamRooms},
		{Name: "rooms-text-scan", Kind: KindRegex, Pattern: `(?i)\b(\d{1,2})\s*(?:pokoje|pokoi|pokój|pok\.)`},
	},
	FieldLocation: {
		{Name: "location-name", Kind: KindText, Selector: `[data-testid="location-name"]`},
		{Name: "header-location", Kind: KindText, Selector: `[data-testid="ad-header-location"]`},
		{Name: "map-link", Kind: KindText, Selector: `a[href="#map"]`},
		{Name: "address-aria-label", Kind: KindText, Selector: `[aria-label="Adres"]`},
		{Name: "structured-address", Kind: KindStructuredAddress},
		{Name: "breadcrumbs", Kind: KindBreadcrumbs, Selector: `[data-cy="breadcrumbs-link"]`},
		{Name: "breadcrumbs-nav", Kind: KindBreadcrumbs, Selector: `nav[aria-label="breadcrumb"] li`},
		{Name: "admin-unit-scan", Kind: KindAdminUnits},
	},
	FieldDescription: {
		{Name: "description-data-attr", Kind: KindText, Selector: `[data-cy="adPageAdDescription"]`},
		{Name: "description-test-id", Kind: KindText, Selector: `[data-testid="ad.description"]`},
		{Name: "description-section", Kind: KindText, Selector: `section[aria-labelledby="description"]`},
		{Name: "readability", Kind: KindReadability},
	},
}

var defaultTableRows = []string{
	".css-1ccovha",
	`[data-testid="ad.top-information.table"] > div`,
	`[data-testid="ad.additional-information.table"] > div`,
	`[data-testid="table-value-row"]`,
}

var defaultSynonyms = map[string]Synonyms{
	ParamPrice: {
		Include: []string{"cena", "price"},
		Exclude: []string{"za m", "/m", "per m", "za metr"},
	},
	ParamArea: {
		Include: []string{"powierzchnia", "area"},
		Exclude: []string{"działk", "dzialk", "plot", "lot area"},
	},
	ParamPlotArea: {
		Include: []string{"powierzchnia działki", "działka", "działki", "plot area", "lot area"},
	},
	ParamRooms: {
		Include: []string{"liczba pokoi", "pokoje", "pokoi", "rooms"},
	},
}

var defaultBreadcrumbStop = []string{
	"ogłoszenia",
	"nieruchomości",
	"otodom",
	"strona główna",
	"mieszkania",
	"domy",
	"działki",
	"sprzedaż",
	"wynajem",
	"real estate",
	"houses",
	"flats",
	"listings",
	"home",
}

var defaultAdminUnits = []string{
	"ul.",
	"gmina",
	"gm.",
	"powiat",
	"pow.",
	"woj.",
	"województwo",
	"osiedle",
	"dzielnica",
}

var defaultTitleSuffixes = []string{
	" - otodom.pl",
	" | otodom.pl",
	" - otodom",
	" | otodom",
}

var defaultArchivedMarkers = Markers{
	Texts: []string{
		"ogłoszenie archiwalne",
		"ogłoszenie nieaktualne",
		"to ogłoszenie jest już nieaktualne",
		"ogłoszenie zostało zakończone",
		"ogłoszenie wygasło",
	},
	Selectors: []string{
		`[data-cy="expired-ad-alert"]`,
		`[data-testid="expired-ad-alert"]`,
	},
	Regions: []string{
		"h1",
		"h2",
		`[role="alert"]`,
		`[role="status"]`,
	},
}

var defaultBlockedMarkers = Markers{
	Texts: []string{
		"captcha",
		"access denied",
		"request blocked",
		"attention required",
		"dostęp zablokowany",
	},
	// Challenge pages only; a listing may embed a captcha widget in its contact form.
	Selectors: []string{
		`#challenge-form`,
		`#challenge-running`,
		`#px-captcha`,
	},
	Regions: []string{
		"h1",
		"h2",
		`[role="alert"]`,
		`#cf-error-details`,
	},
}
