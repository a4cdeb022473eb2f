package metrics

// Metric names.
const (
	TradeRequest            = "Trade Request"
	HealthyAccount          = "Healthy Account"
	Credits                 = "Credits"
	ListingSize             = "Listing Size"
	ClubValue               = "Club Value"
	ContractsPurchased      = "Contracts Purchased"
	ContractsOutbid         = "Contracts Outbid"
	ContractsSold           = "Contracts Sold"
	ContractsListing        = "Contracts Listing"
	ListingItems            = "Listing Items"
	ActiveContractsAverage  = "Active Contracts Average"
	ExpiredContractsAverage = "Expired Contracts Average"
	Relist                  = "Relist"
	ContractsRelisted       = "Contracts Relisted"
	ContractsReclaimed      = "Contracts Reclaimed"
	OrphansReclaimed        = "Orphans Reclaimed"
	ContractsInClub         = "Contracts In Club"
	ListContracts           = "List Contracts"
	ContractSearched        = "Contract Searched"
	ContractFound           = "Contract Found"
	ContractsFoundRatio     = "Contracts Found Ratio"
	Bid                     = "Bid"
	CycleFailure            = "Cycle Failure"
	PartialFailure          = "Partial Failure"
	APIStatus               = "API Status"
	TransferListSize        = "Transfer List Size"
	SoldContractsAverage    = "Sold Contracts Average"
)

// Dimension keys.
const (
	DimAccount         = "Account"
	DimContractType    = "Contract Type"
	DimTradeState      = "Trade State"
	DimBidStatus       = "Bid Status"
	DimBidPrice        = "Bid Price"
	DimBidTier         = "Bid Tier"
	DimListingStatus   = "Listing Status"
	DimRelistOutcome   = "Relist Outcome"
	DimStep            = "Step"
	DimFailureCategory = "Failure Category"
	DimOperation       = "Operation"
	DimResponseCode    = "Response Code"
)

// Contract type dimension values.
const (
	ContractGoldPlayer = "Gold Player"
	ContractGoldCoach  = "Gold Coach"
)
