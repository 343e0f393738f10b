package dto

type AdminSummary struct {
	Total        int64            `json:"total"`
	Pending      int64            `json:"pending"`
	Approved     int64            `json:"approved"`
	Rejected     int64            `json:"rejected"`
	TotalAmount  float64          `json:"total_amount"`
	CountsByType map[string]int64 `json:"counts_by_type"`
}

type DonorSummary struct {
	AvailableRequestsCount int64   `json:"available_requests_count"`
	TotalNeededAmount      float64 `json:"total_needed_amount"`
	MyDonationCount        int64   `json:"my_donation_count"`
	MyDonationAmount       float64 `json:"my_donation_amount"`
}
