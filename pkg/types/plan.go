package types

// PlanKey identifies one of the purchasable subscription plans. The processor
// side must expose a matching purchasable item per plan (configured in
// pkg/config).
type PlanKey string

const (
	PlanKeyMonthly    PlanKey = "monthly"
	PlanKeyQuarterly  PlanKey = "quarterly"
	PlanKeySemiannual PlanKey = "semiannual"
	PlanKeyAnnual     PlanKey = "annual"
)

var AllPlanKeys = []PlanKey{PlanKeyMonthly, PlanKeyQuarterly, PlanKeySemiannual, PlanKeyAnnual}

func (p PlanKey) Valid() bool {
	switch p {
	case PlanKeyMonthly, PlanKeyQuarterly, PlanKeySemiannual, PlanKeyAnnual:
		return true
	}
	return false
}
