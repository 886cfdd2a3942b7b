package models

// StateValue is the state of an alarm
type StateValue string

const (
	StateOK               StateValue = "OK"
	StateAlarm            StateValue = "ALARM"
	StateInsufficientData StateValue = "INSUFFICIENT_DATA"
)

// AlarmStateChangeEvent is an alarm transition signal, in the CloudWatch
// alarm state-change shape. It arrives either from an external monitoring
// webhook or from the internal failure alarm.
type AlarmStateChangeEvent struct {
	AccountID string    `json:"accountId"`
	AlarmARN  string    `json:"alarmArn"`
	Time      string    `json:"time"`
	Region    string    `json:"region"`
	Source    string    `json:"source"`
	AlarmData AlarmData `json:"alarmData"`
}

// AlarmData carries the alarm's name, states and configuration
type AlarmData struct {
	AlarmName     string             `json:"alarmName"`
	State         AlarmState         `json:"state"`
	PreviousState AlarmState         `json:"previousState"`
	Configuration AlarmConfiguration `json:"configuration"`
}

// AlarmState describes the alarm state at a point in time
type AlarmState struct {
	Value      StateValue `json:"value"`
	Reason     string     `json:"reason"`
	ReasonData string     `json:"reasonData"`
	Timestamp  string     `json:"timestamp"`
}

// AlarmConfiguration describes the alarm and its metric queries
type AlarmConfiguration struct {
	Description string            `json:"description"`
	Metrics     []MetricDataQuery `json:"metrics,omitempty"`
}

// MetricDataQuery is one metric query backing an alarm
type MetricDataQuery struct {
	ID         string      `json:"id"`
	Expression string      `json:"expression,omitempty"`
	Label      string      `json:"label,omitempty"`
	MetricStat *MetricStat `json:"metricStat,omitempty"`
	Period     int         `json:"period,omitempty"`
	ReturnData bool        `json:"returnData,omitempty"`
}

// MetricStat is the metric, period and statistic for a query
type MetricStat struct {
	Metric Metric `json:"metric"`
	Period int    `json:"period"`
	Stat   string `json:"stat"`
	Unit   string `json:"unit,omitempty"`
}

// Metric identifies a metric by name, namespace and dimensions
type Metric struct {
	Name       string            `json:"name"`
	Namespace  string            `json:"namespace"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
}
