package domain

// ModelSnapshot is a persisted trained model: backend identifier, the
// JSON-encoded fitted parameters, and the exact feature-name list the model
// was trained with. Downstream code never introspects the payload; the
// feature names travel with the model as an explicit contract.
type ModelSnapshot struct {
	Name         string
	Version      string
	Backend      string
	Payload      []byte
	FeatureNames []string
	CVResults    []FoldMetrics
	CreatedAtMs  int64
}
