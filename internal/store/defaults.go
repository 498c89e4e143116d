package store

import "budgify/internal/core"

// DefaultSettings is the category set given to new accounts.
func DefaultSettings() core.Settings {
	return core.Settings{
		FixedCharges: ordered([]core.Category{
			{ID: "fc_sosh_remi", Label: "Sosh Rémi", Amount: 19.99},
			{ID: "fc_sosh_noemie", Label: "Sosh Noémie", Amount: 15.99},
			{ID: "fc_box", Label: "Box", Amount: 30.99},
			{ID: "fc_predica", Label: "Prédica", Amount: 14.33},
			{ID: "fc_assurances", Label: "Assurances", Amount: 69.31},
			{ID: "fc_assu_voiture", Label: "Assu voiture", Amount: 104.88},
			{ID: "fc_engie", Label: "Engie", Amount: 200},
			{ID: "fc_veolia", Label: "Véolia", Amount: 42.12},
			{ID: "fc_frais_carte", Label: "Frais carte", Amount: 18},
			{ID: "fc_alimentation", Label: "Alimentation", Amount: 492.49},
			{ID: "fc_taxe_fonciere", Label: "Taxe foncière", Amount: 154},
		}),
		Subscriptions: ordered([]core.Category{
			{ID: "sub_apple_music", Label: "Apple Music", Amount: 16.99},
			{ID: "sub_netflix", Label: "Netflix", Amount: 5.99},
			{ID: "sub_disney", Label: "Disney", Amount: 8.99},
			{ID: "sub_amazon", Label: "Amazon", Amount: 6.99},
			{ID: "sub_hachette", Label: "Hachette", Amount: 35.97},
			{ID: "sub_playstation", Label: "Playstation", Amount: 13.99},
			{ID: "sub_chatgpt", Label: "ChatGPT", Amount: 23},
		}),
		Credits: ordered([]core.Category{
			{ID: "cr_maison", Label: "Maison", Amount: 613},
			{ID: "cr_conso", Label: "Conso", Amount: 349},
			{ID: "cr_mac", Label: "Mac", Amount: 60},
		}),
		Savings: ordered([]core.Category{
			{ID: "sav_alaric", Label: "Alaric", Amount: 50},
			{ID: "sav_bourse", Label: "Bourse", Amount: 100},
			{ID: "sav_gomining", Label: "GoMining", Amount: 100},
			{ID: "sav_bitstack", Label: "Bitstack", Amount: 110},
			{ID: "sav_epargne", Label: "Epargne", Amount: 100},
		}),
	}
}

func ordered(list []core.Category) []core.Category {
	for i := range list {
		list[i].SortOrder = i
	}
	return list
}
