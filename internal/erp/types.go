package erp

import "github.com/shopspring/decimal"

// Wire types mirror the field names the order service uses; the JSON tags
// are load-bearing and must not be renamed.

type Sale struct {
	VocNo    int             `json:"VocNo"`
	Date     string          `json:"Date"`
	TblNo    int             `json:"TblNo"`
	PType    int             `json:"PType"`
	SCharges decimal.Decimal `json:"SCharges"`
	Trans    []SaleLine      `json:"Trans"`
}

type SaleLine struct {
	ProductID int             `json:"ProductId"`
	ProdName  string          `json:"ProdName"`
	Qty       decimal.Decimal `json:"Qty"`
	PQty      decimal.Decimal `json:"PQty"`
	Rate      decimal.Decimal `json:"Rate"`
	NetAmount decimal.Decimal `json:"NetAmount"`
	IsDeleted int             `json:"isDeleted"`
}

type Product struct {
	ProductID int             `json:"ProductId"`
	ProdName  string          `json:"ProdName"`
	ListRate  decimal.Decimal `json:"ListRate"`
}

type SalesRow struct {
	VocNo     int             `json:"VocNo"`
	Date      string          `json:"Date"`
	ProdName  string          `json:"ProdName"`
	Qty       decimal.Decimal `json:"Qty"`
	NetAmount decimal.Decimal `json:"NetAmount"`
}

type SalesSummaryRow struct {
	VocNo     int             `json:"VocNo"`
	CntProds  int             `json:"CntProds"`
	NetAmount decimal.Decimal `json:"NetAmount"`
}

type loginRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	CompanyEmail string `json:"companyEmail"`
	IPAddress    string `json:"ipAddress"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type salesListResponse struct {
	Records []SalesRow `json:"records"`
}

type salesSummaryResponse struct {
	Table []SalesSummaryRow `json:"table"`
}

type ipResponse struct {
	IP string `json:"ip"`
}
