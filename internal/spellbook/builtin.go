package spellbook

// Spell ids referenced by the bundled analysis modules.
const (
	DemonBladesTalent     int64 = 203555
	DemonBladesFury       int64 = 203796
	FelBarrageTalent      int64 = 258925
	FelBarrageDamage      int64 = 258926
	MetamorphosisHavoc    int64 = 191427
	MetamorphosisBuff     int64 = 162264
	FerociousBite         int64 = 22568
	RampantFerocityTalent int64 = 391709
	RampantFerocityDamage int64 = 391710
	ApexPredatorsCraving  int64 = 391881
	ApexPredatorsBuff     int64 = 391882
	ConvokeTheSpirits     int64 = 391528
)

// Builtin returns the metadata for the spells the bundled modules refer to.
func Builtin() *Table {
	return NewTable(
		Spell{ID: DemonBladesTalent, Name: "Demon Blades", Icon: "inv_weapon_shortblade_92"},
		Spell{ID: DemonBladesFury, Name: "Demon Blades", Icon: "inv_weapon_shortblade_92"},
		Spell{ID: FelBarrageTalent, Name: "Fel Barrage", Icon: "inv_felbarrage"},
		Spell{ID: FelBarrageDamage, Name: "Fel Barrage", Icon: "inv_felbarrage"},
		Spell{ID: MetamorphosisHavoc, Name: "Metamorphosis", Icon: "ability_demonhunter_metamorphasisdps"},
		Spell{ID: MetamorphosisBuff, Name: "Metamorphosis", Icon: "ability_demonhunter_metamorphasisdps"},
		Spell{ID: FerociousBite, Name: "Ferocious Bite", Icon: "ability_druid_ferociousbite"},
		Spell{ID: RampantFerocityTalent, Name: "Rampant Ferocity", Icon: "ability_druid_rake"},
		Spell{ID: RampantFerocityDamage, Name: "Rampant Ferocity", Icon: "ability_druid_rake"},
		Spell{ID: ApexPredatorsCraving, Name: "Apex Predator's Craving", Icon: "ability_druid_primalagression"},
		Spell{ID: ApexPredatorsBuff, Name: "Apex Predator's Craving", Icon: "ability_druid_primalagression"},
		Spell{ID: ConvokeTheSpirits, Name: "Convoke the Spirits", Icon: "ability_ardenweald_druid"},
	)
}
