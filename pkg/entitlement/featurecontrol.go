package entitlement

import "github.com/miplata/core/pkg/plans"

// FeatureControl is a boolean-flags-only projection of a plan's permission
// set, shaped for fast UI consumption: route guards and template conditions
// read fields directly instead of searching a permission slice.
type FeatureControl struct {
	CanUseManualMovements         bool   `json:"can_use_manual_movements"`
	CanUseManualCards             bool   `json:"can_use_manual_cards"`
	CanUseBasicCategorization     bool   `json:"can_use_basic_categorization"`
	CanUseAdvancedCategorization  bool   `json:"can_use_advanced_categorization"`
	CanUploadCartola              bool   `json:"can_upload_cartola"`
	CanUseScraper                 bool   `json:"can_use_scraper"`
	CanUseAutomatedCategorization bool   `json:"can_use_automated_categorization"`
	CanExportData                 bool   `json:"can_export_data"`
	CanUseAPI                     bool   `json:"can_use_api"`
	CanUseExecutiveDashboard      bool   `json:"can_use_executive_dashboard"`
	HasEmailSupport               bool   `json:"has_email_support"`
	HasPrioritySupport            bool   `json:"has_priority_support"`
	PlanID                        string `json:"plan_id"`
	PlanName                      string `json:"plan_name"`
	PlanRank                      int    `json:"plan_rank"`
}

// NewFeatureControl projects a plan's permissions into flags.
func NewFeatureControl(p plans.Plan) FeatureControl {
	return FeatureControl{
		CanUseManualMovements:         p.HasPermission(plans.PermManualMovements),
		CanUseManualCards:             p.HasPermission(plans.PermManualCards),
		CanUseBasicCategorization:     p.HasPermission(plans.PermBasicCategorization),
		CanUseAdvancedCategorization:  p.HasPermission(plans.PermAdvancedCategorization),
		CanUploadCartola:              p.HasPermission(plans.PermCartolaUpload),
		CanUseScraper:                 p.HasPermission(plans.PermScraperAccess),
		CanUseAutomatedCategorization: p.HasPermission(plans.PermAutomatedCategorization),
		CanExportData:                 p.HasPermission(plans.PermExportData),
		CanUseAPI:                     p.HasPermission(plans.PermAPIAccess),
		CanUseExecutiveDashboard:      p.HasPermission(plans.PermExecutiveDashboard),
		HasEmailSupport:               p.HasPermission(plans.PermEmailSupport),
		HasPrioritySupport:            p.HasPermission(plans.PermPrioritySupport),
		PlanID:                        p.ID,
		PlanName:                      p.Name,
		PlanRank:                      p.Rank,
	}
}
