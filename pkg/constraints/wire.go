package constraints

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/hashicorp/go-msgpack/codec"

	"github.com/fernlabs/constraints/pkg/metrics"
)

// Wire messages. The binary (msgpack) and JSON projections are two views of
// the same schema; both are produced from and consumed into these structs.

type ValueConstraintMsg struct {
	Name         string `json:"name" codec:"name"`
	Op           string `json:"op" codec:"op"`
	Value        any    `json:"value" codec:"value"`
	RegexPattern string `json:"regex_pattern,omitempty" codec:"regex_pattern,omitempty"`
	Verbose      bool   `json:"verbose,omitempty" codec:"verbose,omitempty"`
	Total        uint64 `json:"total,omitempty" codec:"total,omitempty"`
	Failures     uint64 `json:"failures,omitempty" codec:"failures,omitempty"`
}

type SummaryBetweenMsg struct {
	LowerValue  *float64 `json:"lower_value,omitempty" codec:"lower_value,omitempty"`
	UpperValue  *float64 `json:"upper_value,omitempty" codec:"upper_value,omitempty"`
	SecondField string   `json:"second_field,omitempty" codec:"second_field,omitempty"`
	ThirdField  string   `json:"third_field,omitempty" codec:"third_field,omitempty"`
}

type SummaryConstraintMsg struct {
	Name         string             `json:"name" codec:"name"`
	FirstField   string             `json:"first_field" codec:"first_field"`
	Op           string             `json:"op" codec:"op"`
	Verbose      bool               `json:"verbose,omitempty" codec:"verbose,omitempty"`
	Value        *float64           `json:"value,omitempty" codec:"value,omitempty"`
	SecondField  string             `json:"second_field,omitempty" codec:"second_field,omitempty"`
	Between      *SummaryBetweenMsg `json:"between,omitempty" codec:"between,omitempty"`
	ReferenceSet []any              `json:"reference_set,omitempty" codec:"reference_set,omitempty"`
	Total        uint64             `json:"total,omitempty" codec:"total,omitempty"`
	Failures     uint64             `json:"failures,omitempty" codec:"failures,omitempty"`
}

type ValueConstraintMsgs struct {
	Constraints []*ValueConstraintMsg `json:"constraints" codec:"constraints"`
}

type SummaryConstraintMsgs struct {
	Constraints []*SummaryConstraintMsg `json:"constraints" codec:"constraints"`
}

type PropertiesMsg struct {
	SchemaMajorVersion uint32            `json:"schema_major_version,omitempty" codec:"schema_major_version,omitempty"`
	SchemaMinorVersion uint32            `json:"schema_minor_version,omitempty" codec:"schema_minor_version,omitempty"`
	SessionID          string            `json:"session_id,omitempty" codec:"session_id,omitempty"`
	SessionTimestamp   int64             `json:"session_timestamp,omitempty" codec:"session_timestamp,omitempty"` // unix millis
	DataTimestamp      int64             `json:"data_timestamp,omitempty" codec:"data_timestamp,omitempty"`       // unix millis
	Tags               map[string]string `json:"tags,omitempty" codec:"tags,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty" codec:"metadata,omitempty"`
}

type DatasetConstraintsMsg struct {
	Properties         *PropertiesMsg                    `json:"properties,omitempty" codec:"properties,omitempty"`
	ValueConstraints   map[string]*ValueConstraintMsgs   `json:"value_constraints,omitempty" codec:"value_constraints,omitempty"`
	SummaryConstraints map[string]*SummaryConstraintMsgs `json:"summary_constraints,omitempty" codec:"summary_constraints,omitempty"`
}

// --- value constraint ---

func (c *ValueConstraint) ToMsg() *ValueConstraintMsg {
	msg := &ValueConstraintMsg{
		Name:     c.Name(),
		Op:       c.op.String(),
		Verbose:  c.verbose,
		Total:    c.total,
		Failures: c.failures,
	}
	if c.pattern != nil {
		msg.RegexPattern = c.src
	} else {
		msg.Value = c.value
	}
	return msg
}

// ValueConstraintFromMsg reconstructs a constraint from its wire form.
// Exactly one of value and regex_pattern must be set.
func ValueConstraintFromMsg(msg *ValueConstraintMsg) (*ValueConstraint, error) {
	if msg == nil {
		return nil, formatErrorf("value constraint message is empty")
	}
	if (msg.Value != nil) == (msg.RegexPattern != "") {
		return nil, formatErrorf("value constraint message %q must set exactly one of value and regex_pattern", msg.Name)
	}
	op, err := ParseOperator(msg.Op)
	if err != nil {
		return nil, err
	}
	c, err := NewValueConstraint(ValueConstraintConfig{
		Op:      op,
		Value:   msg.Value,
		Pattern: msg.RegexPattern,
		Name:    msg.Name,
		Verbose: msg.Verbose,
	})
	if err != nil {
		return nil, err
	}
	c.total = msg.Total
	c.failures = msg.Failures
	return c, nil
}

// --- summary constraint ---

func (c *SummaryConstraint) ToMsg() *SummaryConstraintMsg {
	msg := &SummaryConstraintMsg{
		Name:       c.Name(),
		FirstField: c.firstField,
		Op:         c.op.String(),
		Verbose:    c.verbose,
		Total:      c.total,
		Failures:   c.failures,
	}
	switch o := c.operand.(type) {
	case *literalCompare:
		v := o.value
		msg.Value = &v
	case *fieldCompare:
		msg.SecondField = o.field
	case *betweenLiterals:
		lo, hi := o.lower, o.upper
		msg.Between = &SummaryBetweenMsg{LowerValue: &lo, UpperValue: &hi}
	case *betweenFields:
		msg.Between = &SummaryBetweenMsg{SecondField: o.lower, ThirdField: o.upper}
	case *setRelation:
		msg.ReferenceSet = append([]any(nil), o.items...)
	}
	return msg
}

// SummaryConstraintFromMsg reconstructs a constraint from its wire form.
// Exactly one operand-shape variant must be set on the message.
func SummaryConstraintFromMsg(msg *SummaryConstraintMsg) (*SummaryConstraint, error) {
	if msg == nil {
		return nil, formatErrorf("summary constraint message is empty")
	}
	op, err := ParseOperator(msg.Op)
	if err != nil {
		return nil, err
	}

	variants := 0
	if msg.Value != nil {
		variants++
	}
	if msg.SecondField != "" {
		variants++
	}
	if msg.Between != nil {
		variants++
	}
	if len(msg.ReferenceSet) > 0 {
		variants++
	}
	if variants != 1 {
		return nil, formatErrorf("summary constraint message %q must set exactly one of value, second_field, between, and reference_set; got %d", msg.Name, variants)
	}

	cfg := SummaryConstraintConfig{
		FirstField: msg.FirstField,
		Op:         op,
		Name:       msg.Name,
		Verbose:    msg.Verbose,
	}
	switch {
	case msg.Value != nil:
		cfg.Value = msg.Value
	case msg.SecondField != "":
		cfg.SecondField = msg.SecondField
	case msg.Between != nil:
		b := msg.Between
		hasValues := b.LowerValue != nil && b.UpperValue != nil && b.SecondField == "" && b.ThirdField == ""
		hasFields := b.SecondField != "" && b.ThirdField != "" && b.LowerValue == nil && b.UpperValue == nil
		switch {
		case hasValues:
			cfg.Value = b.LowerValue
			cfg.UpperValue = b.UpperValue
		case hasFields:
			cfg.SecondField = b.SecondField
			cfg.ThirdField = b.ThirdField
		default:
			return nil, formatErrorf("summary constraint message %q between clause must set lower and upper values or second and third fields", msg.Name)
		}
	default:
		cfg.ReferenceSet = msg.ReferenceSet
	}

	c, err := NewSummaryConstraint(cfg)
	if err != nil {
		return nil, err
	}
	c.total = msg.Total
	c.failures = msg.Failures
	return c, nil
}

// --- collections ---

func (vc *ValueConstraints) ToMsg() *ValueConstraintMsgs {
	msg := &ValueConstraintMsgs{Constraints: make([]*ValueConstraintMsg, 0, len(vc.order))}
	for _, name := range vc.order {
		msg.Constraints = append(msg.Constraints, vc.byName[name].ToMsg())
	}
	return msg
}

func ValueConstraintsFromMsg(msg *ValueConstraintMsgs) (*ValueConstraints, error) {
	vc := NewValueConstraints()
	if msg == nil {
		return vc, nil
	}
	for _, cm := range msg.Constraints {
		c, err := ValueConstraintFromMsg(cm)
		if err != nil {
			return nil, err
		}
		vc.Add(c)
	}
	return vc, nil
}

func (sc *SummaryConstraints) ToMsg() *SummaryConstraintMsgs {
	msg := &SummaryConstraintMsgs{Constraints: make([]*SummaryConstraintMsg, 0, len(sc.order))}
	for _, name := range sc.order {
		msg.Constraints = append(msg.Constraints, sc.byName[name].ToMsg())
	}
	return msg
}

func SummaryConstraintsFromMsg(msg *SummaryConstraintMsgs) (*SummaryConstraints, error) {
	sc := NewSummaryConstraints()
	if msg == nil {
		return sc, nil
	}
	for _, cm := range msg.Constraints {
		c, err := SummaryConstraintFromMsg(cm)
		if err != nil {
			return nil, err
		}
		sc.Add(c)
	}
	return sc, nil
}

// --- properties ---

func (p Properties) ToMsg() *PropertiesMsg {
	return &PropertiesMsg{
		SchemaMajorVersion: p.SchemaMajorVersion,
		SchemaMinorVersion: p.SchemaMinorVersion,
		SessionID:          p.SessionID,
		SessionTimestamp:   timeToMillis(p.SessionTimestamp),
		DataTimestamp:      timeToMillis(p.DataTimestamp),
		Tags:               p.Tags,
		Metadata:           p.Metadata,
	}
}

func propertiesFromMsg(msg *PropertiesMsg) Properties {
	if msg == nil {
		return Properties{}
	}
	return Properties{
		SchemaMajorVersion: msg.SchemaMajorVersion,
		SchemaMinorVersion: msg.SchemaMinorVersion,
		SessionID:          msg.SessionID,
		SessionTimestamp:   millisToTime(msg.SessionTimestamp),
		DataTimestamp:      millisToTime(msg.DataTimestamp),
		Tags:               msg.Tags,
		Metadata:           msg.Metadata,
	}
}

func timeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// --- dataset ---

func (d *DatasetConstraints) ToMsg() *DatasetConstraintsMsg {
	msg := &DatasetConstraintsMsg{
		Properties:         d.props.ToMsg(),
		ValueConstraints:   make(map[string]*ValueConstraintMsgs, len(d.valueColumns)),
		SummaryConstraints: make(map[string]*SummaryConstraintMsgs, len(d.summaryColumns)),
	}
	for _, column := range d.valueOrder {
		msg.ValueConstraints[column] = d.valueColumns[column].ToMsg()
	}
	for _, column := range d.summaryOrder {
		msg.SummaryConstraints[column] = d.summaryColumns[column].ToMsg()
	}
	return msg
}

func DatasetConstraintsFromMsg(msg *DatasetConstraintsMsg) (*DatasetConstraints, error) {
	if msg == nil {
		return nil, formatErrorf("dataset constraints message is empty")
	}
	d := &DatasetConstraints{
		props:          propertiesFromMsg(msg.Properties),
		valueColumns:   make(map[string]*ValueConstraints, len(msg.ValueConstraints)),
		summaryColumns: make(map[string]*SummaryConstraints, len(msg.SummaryConstraints)),
	}
	for column, cm := range msg.ValueConstraints {
		vc, err := ValueConstraintsFromMsg(cm)
		if err != nil {
			return nil, err
		}
		d.valueColumns[column] = vc
		d.valueOrder = append(d.valueOrder, column)
	}
	for column, cm := range msg.SummaryConstraints {
		sc, err := SummaryConstraintsFromMsg(cm)
		if err != nil {
			return nil, err
		}
		d.summaryColumns[column] = sc
		d.summaryOrder = append(d.summaryOrder, column)
	}
	sort.Strings(d.valueOrder)
	sort.Strings(d.summaryOrder)
	return d, nil
}

// EncodeJSON renders the dataset container in the JSON projection of the wire
// schema.
func (d *DatasetConstraints) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(d.ToMsg(), "", "  ")
}

// DecodeJSON parses the JSON projection back into a dataset container.
func DecodeJSON(data []byte) (*DatasetConstraints, error) {
	var msg DatasetConstraintsMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.DocumentDecodesTotal.WithLabelValues("json", "error").Inc()
		return nil, formatErrorf("invalid json document: %v", err)
	}
	d, err := DatasetConstraintsFromMsg(&msg)
	if err != nil {
		metrics.DocumentDecodesTotal.WithLabelValues("json", "error").Inc()
		return nil, err
	}
	metrics.DocumentDecodesTotal.WithLabelValues("json", "ok").Inc()
	return d, nil
}

func msgpackHandle() *codec.MsgpackHandle {
	return &codec.MsgpackHandle{RawToString: true}
}

// EncodeBinary renders the dataset container in the binary (msgpack)
// projection of the wire schema.
func (d *DatasetConstraints) EncodeBinary() ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, msgpackHandle()).Encode(d.ToMsg()); err != nil {
		return nil, formatErrorf("failed to encode binary document: %v", err)
	}
	return buf, nil
}

// DecodeBinary parses the binary projection back into a dataset container.
func DecodeBinary(data []byte) (*DatasetConstraints, error) {
	var msg DatasetConstraintsMsg
	if err := codec.NewDecoderBytes(data, msgpackHandle()).Decode(&msg); err != nil {
		metrics.DocumentDecodesTotal.WithLabelValues("binary", "error").Inc()
		return nil, formatErrorf("invalid binary document: %v", err)
	}
	d, err := DatasetConstraintsFromMsg(&msg)
	if err != nil {
		metrics.DocumentDecodesTotal.WithLabelValues("binary", "error").Inc()
		return nil, err
	}
	metrics.DocumentDecodesTotal.WithLabelValues("binary", "ok").Inc()
	return d, nil
}
