package plans

// LimitKey identifies a countable, quota-bound resource.
type LimitKey string

// Metered resources. Every plan must define a quota for every key.
const (
	LimitManualMovements     LimitKey = "manual_movements"
	LimitMaxCards            LimitKey = "max_cards"
	LimitKeywordsPerCategory LimitKey = "keywords_per_category"
	LimitCartolaMovements    LimitKey = "cartola_movements"
	LimitScraperMovements    LimitKey = "scraper_movements"
	LimitMonthlyCartolas     LimitKey = "monthly_cartolas"
	LimitMonthlyScrapes      LimitKey = "monthly_scrapes"
	LimitProjectedMovements  LimitKey = "projected_movements"
)

// Unlimited marks a quota with no cap. A quota of 0 means zero allowance;
// -1 alone means "no cap". This sentinel is relied on across the whole
// system and must never be replaced by 0 or a nil value.
const Unlimited int64 = -1

// IsUnlimited reports whether a quota value means "no cap".
func IsUnlimited(v int64) bool {
	return v == Unlimited
}

// Cadence is the reset schedule of a metered resource.
type Cadence int

const (
	// CadenceLifetime counts records over the whole account lifetime.
	CadenceLifetime Cadence = iota
	// CadenceMonthly counts records since the start of the current
	// calendar month in the user's timezone.
	CadenceMonthly
)

var limitKeys = []LimitKey{
	LimitManualMovements,
	LimitMaxCards,
	LimitKeywordsPerCategory,
	LimitCartolaMovements,
	LimitScraperMovements,
	LimitMonthlyCartolas,
	LimitMonthlyScrapes,
	LimitProjectedMovements,
}

// LimitKeys returns all defined limit keys in a stable order.
func LimitKeys() []LimitKey {
	out := make([]LimitKey, len(limitKeys))
	copy(out, limitKeys)
	return out
}

// Valid reports whether k is one of the defined limit keys.
func (k LimitKey) Valid() bool {
	switch k {
	case LimitManualMovements, LimitMaxCards, LimitKeywordsPerCategory,
		LimitCartolaMovements, LimitScraperMovements, LimitMonthlyCartolas,
		LimitMonthlyScrapes, LimitProjectedMovements:
		return true
	}
	return false
}

// Cadence returns the reset schedule for the key.
func (k LimitKey) Cadence() Cadence {
	switch k {
	case LimitManualMovements, LimitCartolaMovements, LimitScraperMovements,
		LimitMonthlyCartolas, LimitMonthlyScrapes:
		return CadenceMonthly
	default:
		return CadenceLifetime
	}
}

// Label returns the human-readable name of the resource. Denial reasons
// built from it are shown to end users verbatim.
func (k LimitKey) Label() string {
	switch k {
	case LimitManualMovements:
		return "manual movements"
	case LimitMaxCards:
		return "cards"
	case LimitKeywordsPerCategory:
		return "keywords per category"
	case LimitCartolaMovements:
		return "cartola movements"
	case LimitScraperMovements:
		return "scraper movements"
	case LimitMonthlyCartolas:
		return "cartola uploads this month"
	case LimitMonthlyScrapes:
		return "scraper runs this month"
	case LimitProjectedMovements:
		return "projected movements"
	default:
		return string(k)
	}
}

// PermissionKey identifies a boolean feature gate granted by a plan.
type PermissionKey string

const (
	PermManualMovements         PermissionKey = "manual_movements"
	PermManualCards             PermissionKey = "manual_cards"
	PermBasicCategorization     PermissionKey = "basic_categorization"
	PermAdvancedCategorization  PermissionKey = "advanced_categorization"
	PermCartolaUpload           PermissionKey = "cartola_upload"
	PermScraperAccess           PermissionKey = "scraper_access"
	PermAutomatedCategorization PermissionKey = "automated_categorization"
	PermExportData              PermissionKey = "export_data"
	PermAPIAccess               PermissionKey = "api_access"
	PermExecutiveDashboard      PermissionKey = "executive_dashboard"
	PermEmailSupport            PermissionKey = "email_support"
	PermPrioritySupport         PermissionKey = "priority_support"
)

var permissionKeys = []PermissionKey{
	PermManualMovements,
	PermManualCards,
	PermBasicCategorization,
	PermAdvancedCategorization,
	PermCartolaUpload,
	PermScraperAccess,
	PermAutomatedCategorization,
	PermExportData,
	PermAPIAccess,
	PermExecutiveDashboard,
	PermEmailSupport,
	PermPrioritySupport,
}

// PermissionKeys returns all defined permission keys in a stable order.
func PermissionKeys() []PermissionKey {
	out := make([]PermissionKey, len(permissionKeys))
	copy(out, permissionKeys)
	return out
}

// Valid reports whether k is one of the defined permission keys.
func (k PermissionKey) Valid() bool {
	switch k {
	case PermManualMovements, PermManualCards, PermBasicCategorization,
		PermAdvancedCategorization, PermCartolaUpload, PermScraperAccess,
		PermAutomatedCategorization, PermExportData, PermAPIAccess,
		PermExecutiveDashboard, PermEmailSupport, PermPrioritySupport:
		return true
	}
	return false
}

// Label returns the human-readable name of the capability.
func (k PermissionKey) Label() string {
	switch k {
	case PermManualMovements:
		return "manual movements"
	case PermManualCards:
		return "manual cards"
	case PermBasicCategorization:
		return "basic categorization"
	case PermAdvancedCategorization:
		return "advanced categorization"
	case PermCartolaUpload:
		return "cartola uploads"
	case PermScraperAccess:
		return "automatic bank scraping"
	case PermAutomatedCategorization:
		return "automated categorization"
	case PermExportData:
		return "data export"
	case PermAPIAccess:
		return "API access"
	case PermExecutiveDashboard:
		return "executive dashboard"
	case PermEmailSupport:
		return "email support"
	case PermPrioritySupport:
		return "priority support"
	default:
		return string(k)
	}
}
