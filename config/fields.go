package config

// Column names of the CRM CSV export. Columns are matched case-sensitively;
// an absent column disables the derivations and checks that depend on it.
const (
	FieldID            = "id"
	FieldDisplayName   = "display_name"
	FieldStatus        = "primary_opportunity_status_label"
	FieldCurrentValue  = "primary_opportunity_value"
	FieldState         = "custom.All_State"
	FieldCounty        = "custom.All_County"
	FieldAddress       = "custom.Asset_Street_Address"
	FieldCostBasis     = "custom.Asset_Cost_Basis"
	FieldInitialPrice  = "custom.Asset_Initial_Listing_Price"
	FieldAcres         = "custom.All_Asset_Surveyed_Acres"
	FieldPurchaseDate  = "custom.Asset_Date_Purchased"
	FieldListingDate   = "custom.Asset_MLS_Listing_Date"
	FieldOwner         = "custom.Asset_Owner"
	FieldListingType   = "custom.Asset_Listing_Type"
	FieldParcelNumber  = "custom.All_APN"
	FieldListingNumber = "custom.Asset_Internal_Listing_Number"
	FieldMappingAudit  = "custom.Asset_Last_Mapping_Audit"
	FieldLandIDURL     = "custom.All_Land_ID_Link"
	FieldCountyGISURL  = "custom.All_County_GIS_Link"
	FieldMLSURL        = "custom.Asset_MLS_Link"
	FieldAvgOppValue   = "custom.Avg_Opportunity_Value"
)

// RequiredField pairs a CSV column with the label shown on the
// missing-information checklist.
type RequiredField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// RequiredFields is the registry driving the completeness check. Fields are
// checked, and missing labels reported, in this order.
var RequiredFields = []RequiredField{
	{FieldParcelNumber, "Parcel Number (APN)"},
	{FieldAcres, "Surveyed Acres"},
	{FieldCounty, "County"},
	{FieldLandIDURL, "Land ID Link"},
	{FieldState, "State"},
	{FieldCostBasis, "Cost Basis"},
	{FieldPurchaseDate, "Date Purchased"},
	{FieldInitialPrice, "Original Listing Price"},
	{FieldCountyGISURL, "County GIS Link"},
	{FieldMLSURL, "MLS Link"},
	{FieldListingNumber, "Internal Listing #"},
	{FieldListingDate, "MLS Listing Date"},
	{FieldAddress, "Street Address"},
	{FieldMappingAudit, "Mapping Audit Date"},
	{FieldOwner, "Owner"},
	{FieldListingType, "Listing Type"},
	{FieldAvgOppValue, "Avg Opportunity Value"},
}

// KeyFields is the subset of columns the upload response reports as
// available or missing, so the operator can spot a bad export immediately.
var KeyFields = []string{
	FieldID,
	FieldDisplayName,
	FieldStatus,
	FieldState,
	FieldCounty,
	FieldCostBasis,
	FieldInitialPrice,
	FieldCurrentValue,
	FieldAcres,
	FieldPurchaseDate,
	FieldListingDate,
}

// RequiredFieldKeys returns the registry keys in checklist order.
func RequiredFieldKeys() []string {
	keys := make([]string, len(RequiredFields))
	for i, f := range RequiredFields {
		keys[i] = f.Key
	}
	return keys
}
