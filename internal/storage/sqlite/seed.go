package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/kisanmitra/kisan/internal/storage"
)

// Seed populates empty tables with a starter dataset so a fresh install can
// answer price and scheme queries. Rows are only inserted when the table is
// empty; existing data is never touched.
func (s *SQLiteStore) Seed(ctx context.Context) error {
	var priceCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM market_prices`).Scan(&priceCount); err != nil {
		return fmt.Errorf("counting market prices: %w", err)
	}
	if priceCount == 0 {
		for _, p := range seedPrices() {
			if err := s.InsertMarketPrice(ctx, p); err != nil {
				return err
			}
		}
	}

	var schemeCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM govt_schemes`).Scan(&schemeCount); err != nil {
		return fmt.Errorf("counting schemes: %w", err)
	}
	if schemeCount == 0 {
		for _, sc := range seedSchemes() {
			if err := s.InsertScheme(ctx, sc); err != nil {
				return err
			}
		}
	}

	return nil
}

func seedPrices() []storage.MarketPrice {
	today := time.Now()
	day := func(offset int) time.Time { return today.AddDate(0, 0, -offset) }

	return []storage.MarketPrice{
		{Commodity: "Wheat", MandiName: "Indore", MandiDistrict: "Indore", MandiState: "Madhya Pradesh", ModalPrice: 2350, MinPrice: 2200, MaxPrice: 2480, PriceUnit: "quintal", PriceDate: day(0)},
		{Commodity: "Wheat", MandiName: "Dewas", MandiDistrict: "Dewas", MandiState: "Madhya Pradesh", ModalPrice: 2310, MinPrice: 2180, MaxPrice: 2400, PriceUnit: "quintal", PriceDate: day(1)},
		{Commodity: "Wheat", MandiName: "Khanna", MandiDistrict: "Ludhiana", MandiState: "Punjab", ModalPrice: 2425, MinPrice: 2300, MaxPrice: 2500, PriceUnit: "quintal", PriceDate: day(1)},
		{Commodity: "Rice", MandiName: "Karnal", MandiDistrict: "Karnal", MandiState: "Haryana", ModalPrice: 3150, MinPrice: 2900, MaxPrice: 3350, PriceUnit: "quintal", PriceDate: day(0)},
		{Commodity: "Rice", MandiName: "Raipur", MandiDistrict: "Raipur", MandiState: "Chhattisgarh", ModalPrice: 2980, MinPrice: 2800, MaxPrice: 3100, PriceUnit: "quintal", PriceDate: day(2)},
		{Commodity: "Soybean", MandiName: "Indore", MandiDistrict: "Indore", MandiState: "Madhya Pradesh", ModalPrice: 4620, MinPrice: 4400, MaxPrice: 4800, PriceUnit: "quintal", PriceDate: day(0)},
		{Commodity: "Soybean", MandiName: "Ujjain", MandiDistrict: "Ujjain", MandiState: "Madhya Pradesh", ModalPrice: 4550, MinPrice: 4350, MaxPrice: 4700, PriceUnit: "quintal", PriceDate: day(1)},
		{Commodity: "Cotton", MandiName: "Rajkot", MandiDistrict: "Rajkot", MandiState: "Gujarat", ModalPrice: 7050, MinPrice: 6800, MaxPrice: 7300, PriceUnit: "quintal", PriceDate: day(0)},
		{Commodity: "Onion", MandiName: "Lasalgaon", MandiDistrict: "Nashik", MandiState: "Maharashtra", ModalPrice: 1850, MinPrice: 1500, MaxPrice: 2200, PriceUnit: "quintal", PriceDate: day(0)},
		{Commodity: "Tomato", MandiName: "Kolar", MandiDistrict: "Kolar", MandiState: "Karnataka", ModalPrice: 1400, MinPrice: 1100, MaxPrice: 1800, PriceUnit: "quintal", PriceDate: day(1)},
	}
}

func seedSchemes() []storage.Scheme {
	return []storage.Scheme{
		{
			Name:           "PM-KISAN",
			Ministry:       "Ministry of Agriculture & Farmers Welfare",
			Description:    "Direct income support to all landholding farmer families.",
			Benefits:       "₹6,000 per year in three equal installments, paid directly to bank accounts.",
			Eligibility:    "All landholding farmer families, subject to exclusion criteria.",
			ApplicationURL: "https://pmkisan.gov.in",
			IsActive:       true,
		},
		{
			Name:           "Pradhan Mantri Fasal Bima Yojana",
			Ministry:       "Ministry of Agriculture & Farmers Welfare",
			Description:    "Crop insurance covering yield losses from natural calamities, pests, and diseases.",
			Benefits:       "Insurance cover at 2% premium for Kharif, 1.5% for Rabi crops.",
			Eligibility:    "All farmers growing notified crops in notified areas.",
			ApplicationURL: "https://pmfby.gov.in",
			IsActive:       true,
		},
		{
			Name:           "Kisan Credit Card",
			Ministry:       "Ministry of Finance",
			Description:    "Short-term credit for cultivation and allied activities at subsidized interest rates.",
			Benefits:       "Credit up to ₹3 lakh at 4% effective interest with prompt repayment.",
			Eligibility:    "Farmers, tenant farmers, sharecroppers, and SHG members.",
			ApplicationURL: "",
			IsActive:       true,
		},
		{
			Name:           "Pradhan Mantri Krishi Sinchayee Yojana",
			Ministry:       "Ministry of Agriculture & Farmers Welfare",
			Description:    "Irrigation coverage and water-use efficiency: 'Har Khet Ko Pani' and micro irrigation.",
			Benefits:       "Subsidy on drip and sprinkler irrigation systems.",
			Eligibility:    "All categories of farmers; higher subsidy for small and marginal farmers.",
			ApplicationURL: "https://pmksy.gov.in",
			IsActive:       true,
		},
		{
			Name:           "Soil Health Card Scheme",
			Ministry:       "Ministry of Agriculture & Farmers Welfare",
			Description:    "Soil testing and crop-wise fertilizer recommendations for every farm holding.",
			Benefits:       "Free soil testing every two years with nutrient recommendations.",
			Eligibility:    "All farmers.",
			ApplicationURL: "https://soilhealth.dac.gov.in",
			IsActive:       true,
		},
	}
}
