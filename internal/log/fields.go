package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldReport     = "report"
	FieldPeriod     = "period"
	FieldReference  = "reference_time"
	FieldBackend    = "backend"
	FieldRows       = "transactions"
	FieldInserted   = "inserted"
	FieldCurrencies = "currencies"
	FieldStocks     = "stocks"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentReports = "reports"
	ComponentStorage = "storage"
	ComponentSource  = "source"
	ComponentMarket  = "market"
	ComponentAMQP    = "amqp"
	ComponentGCS     = "gcs"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpImport   = "import"
	OpFetch    = "fetch"
	OpBuild    = "build"
	OpPublish  = "publish"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithReport adds the report kind and the moment it describes.
func (f LogFields) WithReport(kind, period, reference string) LogFields {
	f[FieldReport] = kind
	if period != "" {
		f[FieldPeriod] = period
	}
	if reference != "" {
		f[FieldReference] = reference
	}
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
