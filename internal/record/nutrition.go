package record

// Nutrition is a meal or intake entry covering an interval. Every nutrient is
// optional; an absent quantity is nil, not zero.
type Nutrition struct {
	Interval
	Name                      string   `json:"name,omitempty"`
	MealType                  string   `json:"meal_type,omitempty"`
	BiotinMicrograms          *float64 `json:"biotin_ug,omitempty"`
	CaffeineMilligrams        *float64 `json:"caffeine_mg,omitempty"`
	CalciumMilligrams         *float64 `json:"calcium_mg,omitempty"`
	EnergyKilocalories        *float64 `json:"energy_kcal,omitempty"`
	EnergyFromFatKilocalories *float64 `json:"energy_from_fat_kcal,omitempty"`
	ChlorideMilligrams        *float64 `json:"chloride_mg,omitempty"`
	CholesterolMilligrams     *float64 `json:"cholesterol_mg,omitempty"`
	ChromiumMicrograms        *float64 `json:"chromium_ug,omitempty"`
	CopperMilligrams          *float64 `json:"copper_mg,omitempty"`
	DietaryFiberGrams         *float64 `json:"dietary_fiber_g,omitempty"`
	FolateMicrograms          *float64 `json:"folate_ug,omitempty"`
	FolicAcidMicrograms       *float64 `json:"folic_acid_ug,omitempty"`
	IodineMicrograms          *float64 `json:"iodine_ug,omitempty"`
	IronMilligrams            *float64 `json:"iron_mg,omitempty"`
	MagnesiumMilligrams       *float64 `json:"magnesium_mg,omitempty"`
	ManganeseMilligrams       *float64 `json:"manganese_mg,omitempty"`
	MolybdenumMicrograms      *float64 `json:"molybdenum_ug,omitempty"`
	MonounsaturatedFatGrams   *float64 `json:"monounsaturated_fat_g,omitempty"`
	NiacinMilligrams          *float64 `json:"niacin_mg,omitempty"`
	PantothenicAcidMilligrams *float64 `json:"pantothenic_acid_mg,omitempty"`
	PhosphorusMilligrams      *float64 `json:"phosphorus_mg,omitempty"`
	PolyunsaturatedFatGrams   *float64 `json:"polyunsaturated_fat_g,omitempty"`
	PotassiumMilligrams       *float64 `json:"potassium_mg,omitempty"`
	ProteinGrams              *float64 `json:"protein_g,omitempty"`
	RiboflavinMilligrams      *float64 `json:"riboflavin_mg,omitempty"`
	SaturatedFatGrams         *float64 `json:"saturated_fat_g,omitempty"`
	SeleniumMicrograms        *float64 `json:"selenium_ug,omitempty"`
	SodiumMilligrams          *float64 `json:"sodium_mg,omitempty"`
	SugarGrams                *float64 `json:"sugar_g,omitempty"`
	ThiaminMilligrams         *float64 `json:"thiamin_mg,omitempty"`
	TotalCarbohydrateGrams    *float64 `json:"total_carbohydrate_g,omitempty"`
	TotalFatGrams             *float64 `json:"total_fat_g,omitempty"`
	TransFatGrams             *float64 `json:"trans_fat_g,omitempty"`
	UnsaturatedFatGrams       *float64 `json:"unsaturated_fat_g,omitempty"`
	VitaminAMicrograms        *float64 `json:"vitamin_a_ug,omitempty"`
	VitaminB12Micrograms      *float64 `json:"vitamin_b12_ug,omitempty"`
	VitaminB6Milligrams       *float64 `json:"vitamin_b6_mg,omitempty"`
	VitaminCMilligrams        *float64 `json:"vitamin_c_mg,omitempty"`
	VitaminDMicrograms        *float64 `json:"vitamin_d_ug,omitempty"`
	VitaminEMilligrams        *float64 `json:"vitamin_e_mg,omitempty"`
	VitaminKMicrograms        *float64 `json:"vitamin_k_ug,omitempty"`
	ZincMilligrams            *float64 `json:"zinc_mg,omitempty"`
}

func (*Nutrition) Kind() Kind { return KindNutrition }

// Nutrient names a single quantity carried by Nutrition records.
type Nutrient string

const (
	NutrientBiotin             Nutrient = "biotin"
	NutrientCaffeine           Nutrient = "caffeine"
	NutrientCalcium            Nutrient = "calcium"
	NutrientEnergy             Nutrient = "energy"
	NutrientEnergyFromFat      Nutrient = "energy_from_fat"
	NutrientChloride           Nutrient = "chloride"
	NutrientCholesterol        Nutrient = "cholesterol"
	NutrientChromium           Nutrient = "chromium"
	NutrientCopper             Nutrient = "copper"
	NutrientDietaryFiber       Nutrient = "dietary_fiber"
	NutrientFolate             Nutrient = "folate"
	NutrientFolicAcid          Nutrient = "folic_acid"
	NutrientIodine             Nutrient = "iodine"
	NutrientIron               Nutrient = "iron"
	NutrientMagnesium          Nutrient = "magnesium"
	NutrientManganese          Nutrient = "manganese"
	NutrientMolybdenum         Nutrient = "molybdenum"
	NutrientMonounsaturatedFat Nutrient = "monounsaturated_fat"
	NutrientNiacin             Nutrient = "niacin"
	NutrientPantothenicAcid    Nutrient = "pantothenic_acid"
	NutrientPhosphorus         Nutrient = "phosphorus"
	NutrientPolyunsaturatedFat Nutrient = "polyunsaturated_fat"
	NutrientPotassium          Nutrient = "potassium"
	NutrientProtein            Nutrient = "protein"
	NutrientRiboflavin         Nutrient = "riboflavin"
	NutrientSaturatedFat       Nutrient = "saturated_fat"
	NutrientSelenium           Nutrient = "selenium"
	NutrientSodium             Nutrient = "sodium"
	NutrientSugar              Nutrient = "sugar"
	NutrientThiamin            Nutrient = "thiamin"
	NutrientTotalCarbohydrate  Nutrient = "total_carbohydrate"
	NutrientTotalFat           Nutrient = "total_fat"
	NutrientTransFat           Nutrient = "trans_fat"
	NutrientUnsaturatedFat     Nutrient = "unsaturated_fat"
	NutrientVitaminA           Nutrient = "vitamin_a"
	NutrientVitaminB12         Nutrient = "vitamin_b12"
	NutrientVitaminB6          Nutrient = "vitamin_b6"
	NutrientVitaminC           Nutrient = "vitamin_c"
	NutrientVitaminD           Nutrient = "vitamin_d"
	NutrientVitaminE           Nutrient = "vitamin_e"
	NutrientVitaminK           Nutrient = "vitamin_k"
	NutrientZinc               Nutrient = "zinc"
)

// NutrientInfo describes how a nutrient is labelled and where it lives on a
// Nutrition record.
type NutrientInfo struct {
	Nutrient Nutrient
	Label    string
	Unit     string
	Quantity func(*Nutrition) *float64
}

var nutrients = []NutrientInfo{
	{NutrientBiotin, "Biotin", "µg", func(n *Nutrition) *float64 { return n.BiotinMicrograms }},
	{NutrientCaffeine, "Caffeine", "mg", func(n *Nutrition) *float64 { return n.CaffeineMilligrams }},
	{NutrientCalcium, "Calcium", "mg", func(n *Nutrition) *float64 { return n.CalciumMilligrams }},
	{NutrientEnergy, "Energy", "kcal", func(n *Nutrition) *float64 { return n.EnergyKilocalories }},
	{NutrientEnergyFromFat, "Energy from fat", "kcal", func(n *Nutrition) *float64 { return n.EnergyFromFatKilocalories }},
	{NutrientChloride, "Chloride", "mg", func(n *Nutrition) *float64 { return n.ChlorideMilligrams }},
	{NutrientCholesterol, "Cholesterol", "mg", func(n *Nutrition) *float64 { return n.CholesterolMilligrams }},
	{NutrientChromium, "Chromium", "µg", func(n *Nutrition) *float64 { return n.ChromiumMicrograms }},
	{NutrientCopper, "Copper", "mg", func(n *Nutrition) *float64 { return n.CopperMilligrams }},
	{NutrientDietaryFiber, "Dietary fiber", "g", func(n *Nutrition) *float64 { return n.DietaryFiberGrams }},
	{NutrientFolate, "Folate", "µg", func(n *Nutrition) *float64 { return n.FolateMicrograms }},
	{NutrientFolicAcid, "Folic acid", "µg", func(n *Nutrition) *float64 { return n.FolicAcidMicrograms }},
	{NutrientIodine, "Iodine", "µg", func(n *Nutrition) *float64 { return n.IodineMicrograms }},
	{NutrientIron, "Iron", "mg", func(n *Nutrition) *float64 { return n.IronMilligrams }},
	{NutrientMagnesium, "Magnesium", "mg", func(n *Nutrition) *float64 { return n.MagnesiumMilligrams }},
	{NutrientManganese, "Manganese", "mg", func(n *Nutrition) *float64 { return n.ManganeseMilligrams }},
	{NutrientMolybdenum, "Molybdenum", "µg", func(n *Nutrition) *float64 { return n.MolybdenumMicrograms }},
	{NutrientMonounsaturatedFat, "Monounsaturated fat", "g", func(n *Nutrition) *float64 { return n.MonounsaturatedFatGrams }},
	{NutrientNiacin, "Niacin", "mg", func(n *Nutrition) *float64 { return n.NiacinMilligrams }},
	{NutrientPantothenicAcid, "Pantothenic acid", "mg", func(n *Nutrition) *float64 { return n.PantothenicAcidMilligrams }},
	{NutrientPhosphorus, "Phosphorus", "mg", func(n *Nutrition) *float64 { return n.PhosphorusMilligrams }},
	{NutrientPolyunsaturatedFat, "Polyunsaturated fat", "g", func(n *Nutrition) *float64 { return n.PolyunsaturatedFatGrams }},
	{NutrientPotassium, "Potassium", "mg", func(n *Nutrition) *float64 { return n.PotassiumMilligrams }},
	{NutrientProtein, "Protein", "g", func(n *Nutrition) *float64 { return n.ProteinGrams }},
	{NutrientRiboflavin, "Riboflavin", "mg", func(n *Nutrition) *float64 { return n.RiboflavinMilligrams }},
	{NutrientSaturatedFat, "Saturated fat", "g", func(n *Nutrition) *float64 { return n.SaturatedFatGrams }},
	{NutrientSelenium, "Selenium", "µg", func(n *Nutrition) *float64 { return n.SeleniumMicrograms }},
	{NutrientSodium, "Sodium", "mg", func(n *Nutrition) *float64 { return n.SodiumMilligrams }},
	{NutrientSugar, "Sugar", "g", func(n *Nutrition) *float64 { return n.SugarGrams }},
	{NutrientThiamin, "Thiamin", "mg", func(n *Nutrition) *float64 { return n.ThiaminMilligrams }},
	{NutrientTotalCarbohydrate, "Total carbohydrate", "g", func(n *Nutrition) *float64 { return n.TotalCarbohydrateGrams }},
	{NutrientTotalFat, "Total fat", "g", func(n *Nutrition) *float64 { return n.TotalFatGrams }},
	{NutrientTransFat, "Trans fat", "g", func(n *Nutrition) *float64 { return n.TransFatGrams }},
	{NutrientUnsaturatedFat, "Unsaturated fat", "g", func(n *Nutrition) *float64 { return n.UnsaturatedFatGrams }},
	{NutrientVitaminA, "Vitamin A", "µg", func(n *Nutrition) *float64 { return n.VitaminAMicrograms }},
	{NutrientVitaminB12, "Vitamin B12", "µg", func(n *Nutrition) *float64 { return n.VitaminB12Micrograms }},
	{NutrientVitaminB6, "Vitamin B6", "mg", func(n *Nutrition) *float64 { return n.VitaminB6Milligrams }},
	{NutrientVitaminC, "Vitamin C", "mg", func(n *Nutrition) *float64 { return n.VitaminCMilligrams }},
	{NutrientVitaminD, "Vitamin D", "µg", func(n *Nutrition) *float64 { return n.VitaminDMicrograms }},
	{NutrientVitaminE, "Vitamin E", "mg", func(n *Nutrition) *float64 { return n.VitaminEMilligrams }},
	{NutrientVitaminK, "Vitamin K", "µg", func(n *Nutrition) *float64 { return n.VitaminKMicrograms }},
	{NutrientZinc, "Zinc", "mg", func(n *Nutrition) *float64 { return n.ZincMilligrams }},
}

var nutrientIndex = func() map[Nutrient]int {
	m := make(map[Nutrient]int, len(nutrients))
	for i, n := range nutrients {
		m[n.Nutrient] = i
	}
	return m
}()

// Nutrients returns the nutrient table in display order. The returned slice
// is a copy.
func Nutrients() []NutrientInfo {
	out := make([]NutrientInfo, len(nutrients))
	copy(out, nutrients)
	return out
}

// LookupNutrient finds the table entry for n.
func LookupNutrient(n Nutrient) (NutrientInfo, bool) {
	i, ok := nutrientIndex[n]
	if !ok {
		return NutrientInfo{}, false
	}
	return nutrients[i], true
}
