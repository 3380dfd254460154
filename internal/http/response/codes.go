package response

// 业务状态码，成功为 0，其余与 HTTP 语义对齐
const (
	CodeOK              = 0
	CodeCreated         = 201
	CodeBadRequest      = 400
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	CodeInternal        = 500
)
