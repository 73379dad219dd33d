package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIS Enroll API",
        "description": "Enrollment workflow backend for the school information system",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Enrollment Periods", "description": "Admin-defined enrollment windows"},
        {"name": "Enrollment Requests", "description": "Student request review workflow"},
        {"name": "Sections", "description": "Section roster management"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/enrollment/periods": {
            "get": {
                "tags": ["Enrollment Periods"],
                "summary": "List enrollment periods",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Enrollment Periods"],
                "summary": "Create an enrollment period",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/v1/enrollment/periods/{id}": {
            "get": {
                "tags": ["Enrollment Periods"],
                "summary": "Get an enrollment period",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Enrollment Periods"],
                "summary": "Update an enrollment period",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Enrollment Periods"],
                "summary": "Delete an enrollment period",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/enrollment/requests": {
            "get": {
                "tags": ["Enrollment Requests"],
                "summary": "List enrollment requests",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/enrollment/requests/{id}/approve": {
            "post": {
                "tags": ["Enrollment Requests"],
                "summary": "Approve an enrollment request",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/enrollment/requests/{id}/reject": {
            "post": {
                "tags": ["Enrollment Requests"],
                "summary": "Reject an enrollment request",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/enrollment/requests/{id}/void": {
            "post": {
                "tags": ["Enrollment Requests"],
                "summary": "Void a pending enrollment request",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/sections/{id}/students": {
            "get": {
                "tags": ["Sections"],
                "summary": "List a section roster",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Sections"],
                "summary": "Add a student to a section",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/sections/{id}/students/{studentId}": {
            "delete": {
                "tags": ["Sections"],
                "summary": "Remove a student from a section",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "SIS Enroll API",
	Description:      "Enrollment workflow backend for the school information system",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
