package status

const (
	OK                    = "OK"
	CREATED               = "CREATED"
	BAD_REQUEST           = "BAD_REQUEST"
	UNAUTHORIZED          = "UNAUTHORIZED"
	FORBIDDEN             = "FORBIDDEN"
	NOT_FOUND             = "NOT_FOUND"
	CONFLICT              = "CONFLICT"
	UNPROCESSABLE_ENTITY  = "UNPROCESSABLE_ENTITY"
	BAD_GATEWAY           = "BAD_GATEWAY"
	GATEWAY_TIMEOUT       = "GATEWAY_TIMEOUT"
	INTERNAL_SERVER_ERROR = "INTERNAL_SERVER_ERROR"

	// order pricing
	PRODUCT_NOT_FOUND           = "PRODUCT_NOT_FOUND"
	PRODUCT_COUNT_MISMATCH      = "PRODUCT_COUNT_MISMATCH"
	INSUFFICIENT_INVENTORY      = "INSUFFICIENT_INVENTORY"
	INVALID_DISCOUNT_CODE       = "INVALID_DISCOUNT_CODE"
	INVALID_FEE_CONFIGURATION   = "INVALID_FEE_CONFIGURATION"
	STORE_NOT_FOUND             = "STORE_NOT_FOUND"
	ORDER_NOT_FOUND             = "ORDER_NOT_FOUND"
	ORDER_CANCELLED             = "ORDER_CANCELLED"
	REFERENCE_GENERATION_FAILED = "REFERENCE_GENERATION_FAILED"
	INVALID_STATUS_TRANSITION   = "INVALID_STATUS_TRANSITION"

	// settlement
	PAYMENT_NOT_FOUND   = "PAYMENT_NOT_FOUND"
	PAYMENT_LINK_FAILED = "PAYMENT_LINK_FAILED"
	PAYMENT_NOT_SETTLED = "PAYMENT_NOT_SETTLED"
	NOTHING_TO_PAY      = "NOTHING_TO_PAY"
	GATEWAY_INACTIVE    = "GATEWAY_INACTIVE"
	UNSUPPORTED_GATEWAY = "UNSUPPORTED_GATEWAY"
	GATEWAY_UNREACHABLE = "GATEWAY_UNREACHABLE"
	GATEWAY_REJECTED    = "GATEWAY_REJECTED"
)
