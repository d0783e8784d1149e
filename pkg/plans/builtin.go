package plans

// Builtin returns the product's four subscription tiers. Deployments can
// override them with a YAML source; the seed migrations mirror these values.
func Builtin() map[string]Plan {
	return map[string]Plan{
		"free": {
			ID:       "free",
			Name:     "Gratis",
			Rank:     0,
			PriceCLP: 0,
			Limits: map[LimitKey]int64{
				LimitManualMovements:     30,
				LimitMaxCards:            1,
				LimitKeywordsPerCategory: 3,
				LimitCartolaMovements:    0,
				LimitScraperMovements:    0,
				LimitMonthlyCartolas:     0,
				LimitMonthlyScrapes:      0,
				LimitProjectedMovements:  0,
			},
			Permissions: []PermissionKey{
				PermManualMovements,
				PermManualCards,
				PermBasicCategorization,
			},
			Features: []string{
				"1 tarjeta",
				"30 movimientos manuales por mes",
				"Categorización básica",
			},
		},
		"basic": {
			ID:       "basic",
			Name:     "Básico",
			Rank:     1,
			PriceCLP: 9990,
			Limits: map[LimitKey]int64{
				LimitManualMovements:     100,
				LimitMaxCards:            2,
				LimitKeywordsPerCategory: 5,
				LimitCartolaMovements:    0,
				LimitScraperMovements:    0,
				LimitMonthlyCartolas:     0,
				LimitMonthlyScrapes:      0,
				LimitProjectedMovements:  5,
			},
			Permissions: []PermissionKey{
				PermManualMovements,
				PermManualCards,
				PermBasicCategorization,
				PermEmailSupport,
			},
			Features: []string{
				"Máximo 2 tarjetas",
				"100 movimientos manuales por mes",
				"5 palabras clave por categoría",
				"5 movimientos proyectados",
				"Categorización básica",
				"Soporte por email",
			},
		},
		"premium": {
			ID:       "premium",
			Name:     "Premium",
			Rank:     2,
			PriceCLP: 19990,
			Limits: map[LimitKey]int64{
				LimitManualMovements:     1000,
				LimitMaxCards:            10,
				LimitKeywordsPerCategory: 10,
				LimitCartolaMovements:    Unlimited,
				LimitScraperMovements:    0,
				LimitMonthlyCartolas:     Unlimited,
				LimitMonthlyScrapes:      0,
				LimitProjectedMovements:  20,
			},
			Permissions: []PermissionKey{
				PermManualMovements,
				PermManualCards,
				PermBasicCategorization,
				PermAdvancedCategorization,
				PermCartolaUpload,
				PermExportData,
				PermEmailSupport,
				PermPrioritySupport,
			},
			Features: []string{
				"Máximo 10 tarjetas",
				"1.000 movimientos manuales por mes",
				"Cartolas bancarias ilimitadas",
				"10 palabras clave por categoría",
				"20 movimientos proyectados",
				"Categorización avanzada",
				"Exportar datos",
				"Soporte prioritario",
			},
		},
		"pro": {
			ID:       "pro",
			Name:     "Pro",
			Rank:     3,
			PriceCLP: 29990,
			Limits: map[LimitKey]int64{
				LimitManualMovements:     Unlimited,
				LimitMaxCards:            Unlimited,
				LimitKeywordsPerCategory: Unlimited,
				LimitCartolaMovements:    Unlimited,
				LimitScraperMovements:    Unlimited,
				LimitMonthlyCartolas:     Unlimited,
				LimitMonthlyScrapes:      Unlimited,
				LimitProjectedMovements:  Unlimited,
			},
			Permissions: PermissionKeys(),
			Features: []string{
				"Todo ilimitado",
				"Scraper automático de bancos",
				"Categorización automatizada",
				"Exportar datos",
				"Acceso API y dashboard ejecutivo",
				"Soporte prioritario",
			},
		},
	}
}
