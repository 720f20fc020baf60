package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Progress & Eligibility API",
        "description": "GPA, satisfactory academic progress, graduation and honors evaluation for student records",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Login and token lifecycle"},
        {"name": "Students", "description": "Student records and attempt history"},
        {"name": "Standing", "description": "GPA, progress, honors and graduation reads"},
        {"name": "Evaluations", "description": "Batch evaluation runs and exports"},
        {"name": "Policies", "description": "SAP, honors and graduation policy management"},
        {"name": "GradeScale", "description": "Institution grade scale"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue tokens",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "programId", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "sapStatus", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Deactivate student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/students/{id}/attempts": {
            "get": {
                "tags": ["Students"],
                "summary": "Attempt history with grade semantics resolved",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Record one course attempt",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordAttemptRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/attempts/bulk": {
            "post": {
                "tags": ["Students"],
                "summary": "Load an attempt feed, atomic or partialOnError",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAttemptsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/gpa": {
            "get": {
                "tags": ["Standing"],
                "summary": "Live cumulative GPA projection with per-attempt details",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/sap": {
            "get": {
                "tags": ["Standing"],
                "summary": "Latest persisted progress evaluation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No evaluation on record"}
                }
            }
        },
        "/students/{id}/sap/history": {
            "get": {
                "tags": ["Standing"],
                "summary": "Full progress evaluation trail, newest first",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/honors": {
            "get": {
                "tags": ["Standing"],
                "summary": "Latin honors determination",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/evaluate": {
            "post": {
                "tags": ["Standing"],
                "summary": "On-demand SAP evaluation, persisted like a batch member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentEvaluationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/graduation/validate": {
            "post": {
                "tags": ["Standing"],
                "summary": "Validate graduation eligibility over pre-resolved facts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GraduationEligibilityInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations": {
            "post": {
                "tags": ["Evaluations"],
                "summary": "Start a batch evaluation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EvaluationRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Evaluations"],
                "summary": "List batches, newest first",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations/{id}": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "Batch detail including final result",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations/{id}/status": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "Progress polling",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations/{id}/cancel": {
            "post": {
                "tags": ["Evaluations"],
                "summary": "Cooperative cancel",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations/{id}/export": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "Render a completed batch to CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Signed URL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Batch not completed"}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "Download an export artifact via signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Artifact bytes"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/policies/sap": {
            "get": {
                "tags": ["Policies"],
                "summary": "Effective SAP policy for a program",
                "parameters": [
                    {"name": "programId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Policies"],
                "summary": "Create or replace a SAP policy",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SapPolicyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/policies/sap/all": {
            "get": {
                "tags": ["Policies"],
                "summary": "List all SAP policies",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/policies/honors": {
            "get": {
                "tags": ["Policies"],
                "summary": "Latin honors configuration",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Policies"],
                "summary": "Replace Latin honors configuration",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/policies/graduation": {
            "get": {
                "tags": ["Policies"],
                "summary": "Graduation policy configuration",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Policies"],
                "summary": "Replace graduation policy configuration",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grade-scale": {
            "get": {
                "tags": ["GradeScale"],
                "summary": "List grade definitions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["GradeScale"],
                "summary": "Create or replace a grade definition",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "CreateStudentRequest": {
            "type": "object",
            "properties": {
                "external_ref": {"type": "string"},
                "full_name": {"type": "string"},
                "program_id": {"type": "string"},
                "program_credits": {"type": "number"},
                "appeal_approved": {"type": "boolean"},
                "on_academic_plan": {"type": "boolean"},
                "integrity_violation": {"type": "boolean"}
            },
            "required": ["external_ref", "full_name", "program_id", "program_credits"]
        },
        "UpdateStudentRequest": {
            "type": "object",
            "properties": {
                "external_ref": {"type": "string"},
                "full_name": {"type": "string"},
                "program_id": {"type": "string"},
                "program_credits": {"type": "number"},
                "appeal_approved": {"type": "boolean"},
                "on_academic_plan": {"type": "boolean"},
                "integrity_violation": {"type": "boolean"},
                "active": {"type": "boolean"}
            },
            "required": ["external_ref", "full_name", "program_id", "program_credits"]
        },
        "RecordAttemptRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "term_id": {"type": "string"},
                "credits": {"type": "number"},
                "grade_code": {"type": "string"},
                "is_transfer": {"type": "boolean"},
                "is_repeat": {"type": "boolean"},
                "repeat_policy": {"type": "string", "enum": ["replace", "average", "highest", "all_count"]},
                "replaces_id": {"type": "string"}
            },
            "required": ["course_id", "term_id", "grade_code"]
        },
        "BulkAttemptsRequest": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "enum": ["atomic", "partialOnError"]},
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/RecordAttemptRequest"}
                }
            },
            "required": ["items"]
        },
        "StudentEvaluationRequest": {
            "type": "object",
            "properties": {
                "periodId": {"type": "string"}
            },
            "required": ["periodId"]
        },
        "GraduationEligibilityInput": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "academic": {"type": "object"},
                "administrative": {"type": "object"},
                "data": {"type": "object"}
            }
        },
        "EvaluationRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["sap", "gpa"]},
                "periodId": {"type": "string"},
                "studentIds": {"type": "array", "items": {"type": "string"}},
                "programId": {"type": "string"},
                "allActive": {"type": "boolean"}
            },
            "required": ["kind", "periodId"]
        },
        "SapPolicyRequest": {
            "type": "object",
            "properties": {
                "programId": {"type": "string"},
                "minimumGpa": {"type": "number"},
                "minimumPace": {"type": "number"},
                "maxTimeframePercentage": {"type": "number"},
                "gpaTiers": {"type": "array", "items": {"type": "object"}},
                "evaluationCadence": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["minimumPace", "maxTimeframePercentage"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
