package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Gate Pass API",
        "description": "Leave-pass issuance and gate verification backend",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Users", "description": "Registration, login and profiles"},
        {"name": "GatePass", "description": "Leave-pass lifecycle"},
        {"name": "Gate", "description": "Checkpoint verification"},
        {"name": "Devices", "description": "Gate scanner registry"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/users/register": {
            "post": {
                "tags": ["Users"],
                "summary": "Register a new account",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "reg_no", "in": "formData", "type": "string", "required": true},
                    {"name": "password", "in": "formData", "type": "string", "required": true},
                    {"name": "email", "in": "formData", "type": "string", "required": true},
                    {"name": "phone", "in": "formData", "type": "string", "required": true},
                    {"name": "class_name", "in": "formData", "type": "string", "required": true},
                    {"name": "department", "in": "formData", "type": "string", "required": true},
                    {"name": "hod_name", "in": "formData", "type": "string"},
                    {"name": "incharge_name", "in": "formData", "type": "string"},
                    {"name": "valid_until", "in": "formData", "type": "string", "required": true},
                    {"name": "image", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Registered"},
                    "400": {"description": "Invalid form or photo", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "409": {"description": "Registration number taken", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/users/login": {
            "post": {
                "tags": ["Users"],
                "summary": "Authenticate and issue an access token",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "reg_no", "in": "formData", "type": "string", "required": true},
                    {"name": "password", "in": "formData", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Token issued"},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "Account expired", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Current profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/images/{filename}": {
            "get": {
                "tags": ["Users"],
                "summary": "Serve a stored profile image",
                "parameters": [
                    {"name": "filename", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Image bytes"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/gate-pass/request": {
            "post": {
                "tags": ["GatePass"],
                "summary": "Submit a leave request",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "reg_no", "in": "formData", "type": "string", "required": true},
                    {"name": "purpose", "in": "formData", "type": "string", "required": true},
                    {"name": "leave_time", "in": "formData", "type": "string", "required": true},
                    {"name": "return_time", "in": "formData", "type": "string", "required": true},
                    {"name": "proof", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Submitted"},
                    "400": {"description": "Invalid window or proof", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "409": {"description": "Active request already exists", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/gate-pass/my-passes/{reg_no}": {
            "get": {
                "tags": ["GatePass"],
                "summary": "List the caller's passes",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "reg_no", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/gate-pass/{id}": {
            "get": {
                "tags": ["GatePass"],
                "summary": "Fetch one pass",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/gate-pass/{id}/cancel": {
            "post": {
                "tags": ["GatePass"],
                "summary": "Withdraw a pending or approved pass",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Cancelled"},
                    "409": {"description": "Not cancellable", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/gate-pass/{id}/review": {
            "post": {
                "tags": ["GatePass"],
                "summary": "Approve or reject a pending pass (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewPassRequest"}}
                ],
                "responses": {
                    "200": {"description": "Decision applied"},
                    "409": {"description": "Already decided", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "410": {"description": "Window lapsed", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/gate-pass/{id}/token": {
            "get": {
                "tags": ["GatePass"],
                "summary": "Fetch the signed QR token",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Token"},
                    "410": {"description": "Pass expired", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/gate-pass/{id}/qr.png": {
            "get": {
                "tags": ["GatePass"],
                "summary": "Render the pass QR code as PNG",
                "security": [{"BearerAuth": []}],
                "produces": ["image/png"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "PNG bytes"}
                }
            }
        },
        "/gate-pass/{id}/pdf": {
            "get": {
                "tags": ["GatePass"],
                "summary": "Render a printable pass document",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF bytes"}
                }
            }
        },
        "/gate-pass/{id}/remint": {
            "post": {
                "tags": ["GatePass"],
                "summary": "Rotate the pass token (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Fresh token"}
                }
            }
        },
        "/gate-pass/{id}/proof-url": {
            "get": {
                "tags": ["GatePass"],
                "summary": "Issue a signed proof download link",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Signed token"},
                    "404": {"description": "No proof attached", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/gate-pass/proofs": {
            "get": {
                "tags": ["GatePass"],
                "summary": "Download a proof document with a signed token",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Document bytes"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/gate-pass/{id}/scans": {
            "get": {
                "tags": ["GatePass"],
                "summary": "Scan history for a pass (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/verify": {
            "post": {
                "tags": ["Gate"],
                "summary": "Verify a presented pass token",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "X-Device-Key", "in": "header", "type": "string", "required": true},
                    {"name": "qr_content", "in": "formData", "type": "string", "required": true},
                    {"name": "face_image", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Access granted"},
                    "401": {"description": "Bad signature or unknown device", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "Not active yet or face mismatch", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "409": {"description": "Already used", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "410": {"description": "Expired", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/devices": {
            "get": {
                "tags": ["Devices"],
                "summary": "List gate devices (admin)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Devices"],
                "summary": "Register a gate device (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDeviceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created, api_key returned once"}
                }
            }
        },
        "/devices/{id}": {
            "patch": {
                "tags": ["Devices"],
                "summary": "Update a gate device (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateDeviceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated"}
                }
            },
            "delete": {
                "tags": ["Devices"],
                "summary": "Remove a gate device (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/devices/{id}/telemetry": {
            "get": {
                "tags": ["Telemetry"],
                "summary": "Recent sensor readings for a device (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/devices/{id}/telemetry/latest": {
            "get": {
                "tags": ["Telemetry"],
                "summary": "Newest sensor reading for a device (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "No telemetry recorded", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/telemetry": {
            "post": {
                "tags": ["Telemetry"],
                "summary": "Report a sensor reading (device key)",
                "parameters": [
                    {"name": "X-Device-Key", "in": "header", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IngestTelemetryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Recorded"},
                    "401": {"description": "Unknown or inactive device", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "ReviewPassRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["APPROVED", "REJECTED"]},
                "note": {"type": "string"}
            }
        },
        "IngestTelemetryRequest": {
            "type": "object",
            "required": ["sensor_type"],
            "properties": {
                "sensor_type": {"type": "string"},
                "value": {"type": "number"},
                "unit": {"type": "string"},
                "metadata": {"type": "object"}
            }
        },
        "CreateDeviceRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "location": {"type": "string"}
            }
        },
        "UpdateDeviceRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "location": {"type": "string"},
                "active": {"type": "boolean"}
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "code": {"type": "string"},
                "detail": {"type": "string"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
