package modelrouter

import "aigate/internal/domain"

type tableKey struct {
	tier domain.Tier
	mode domain.Mode
}

// selectionTable holds the static tier/mode mapping. A missing key for a
// valid tier and non-rag mode is a denial.
var selectionTable = map[tableKey]domain.CapabilityClass{
	{domain.TierFree, domain.ModeChat}:     domain.ClassNano,
	{domain.TierFree, domain.ModeCode}:     domain.ClassMini,
	{domain.TierFree, domain.ModeDeepDive}: domain.ClassMini,

	{domain.TierPro, domain.ModeChat}:     domain.ClassMini,
	{domain.TierPro, domain.ModeCode}:     domain.ClassCoder,
	{domain.TierPro, domain.ModeRedesign}: domain.ClassStandard,
	{domain.TierPro, domain.ModeDeepDive}: domain.ClassReasoning,

	{domain.TierCreator, domain.ModeChat}:     domain.ClassStandard,
	{domain.TierCreator, domain.ModeCode}:     domain.ClassCoder,
	{domain.TierCreator, domain.ModeRedesign}: domain.ClassVision,
	{domain.TierCreator, domain.ModeDeepDive}: domain.ClassReasoning,
}

// ragBaseline is the class used for rag requests below the large-context threshold.
var ragBaseline = map[domain.Tier]domain.CapabilityClass{
	domain.TierFree:    domain.ClassMini,
	domain.TierPro:     domain.ClassStandard,
	domain.TierCreator: domain.ClassStandard,
}

// Select maps a routing request to a capability class. ok is false when the
// tier is not permitted to use the mode. threshold <= 0 uses the default.
func Select(req domain.RoutingRequest, threshold int) (domain.CapabilityClass, bool) {
	if threshold <= 0 {
		threshold = domain.DefaultLargeContextThreshold
	}
	if req.Mode == domain.ModeRAG {
		if req.ContextSize > threshold {
			return domain.ClassLargeContext, true
		}
		class, ok := ragBaseline[req.Tier]
		return class, ok
	}
	class, ok := selectionTable[tableKey{req.Tier, req.Mode}]
	return class, ok
}
