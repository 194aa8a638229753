// Package docs registers the OpenAPI description of the /v1 API with swag so
// gin-swagger can serve it at /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [
        {
            "BearerAuth": []
        }
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange username and password for tokens",
                "security": [],
                "parameters": [
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/LoginResponse"
                        }
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {
                            "$ref": "#/definitions/APIError"
                        }
                    },
                    "429": {
                        "description": "Too many login attempts"
                    }
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Trade a refresh token for a new token pair",
                "security": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/LoginResponse"
                        }
                    }
                }
            }
        },
        "/menu": {
            "get": {
                "tags": ["orders"],
                "summary": "Meals with at least one allocatable portion",
                "parameters": [
                    {
                        "in": "query",
                        "name": "meal_type",
                        "type": "string",
                        "enum": ["breakfast", "lunch", "drink"]
                    },
                    {
                        "in": "query",
                        "name": "date",
                        "type": "string",
                        "format": "date",
                        "description": "Defaults to today"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/MenuItem"
                            }
                        }
                    }
                }
            }
        },
        "/orders": {
            "get": {
                "tags": ["orders"],
                "summary": "The caller's orders",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/Order"
                            }
                        }
                    }
                }
            },
            "post": {
                "tags": ["orders"],
                "summary": "Order a meal, optionally with a drink",
                "description": "Allocates one portion FEFO. A drink becomes a second order on the same day and is free on subscription.",
                "parameters": [
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PlaceOrderRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/Order"
                        }
                    },
                    "402": {
                        "description": "Insufficient balance",
                        "schema": {
                            "$ref": "#/definitions/APIError"
                        }
                    },
                    "409": {
                        "description": "No prepared portions or no usable subscription",
                        "schema": {
                            "$ref": "#/definitions/APIError"
                        }
                    }
                }
            }
        },
        "/orders/{id}/pay": {
            "post": {
                "tags": ["orders"],
                "summary": "Charge a pending one-time order",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/Order"
                        }
                    }
                }
            }
        },
        "/orders/{id}/receive": {
            "post": {
                "tags": ["orders"],
                "summary": "Confirm pickup of a paid order",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/Order"
                        }
                    }
                }
            }
        },
        "/kitchen/prepare": {
            "post": {
                "tags": ["kitchen"],
                "summary": "Cook a batch, debiting the recipe from inventory",
                "parameters": [
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PrepareRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/Batch"
                        }
                    },
                    "422": {
                        "description": "Insufficient ingredients, with every short line",
                        "schema": {
                            "$ref": "#/definitions/ShortfallError"
                        }
                    }
                }
            }
        },
        "/kitchen/preview": {
            "get": {
                "tags": ["kitchen"],
                "summary": "What preparing a batch would consume",
                "parameters": [
                    {
                        "in": "query",
                        "name": "meal_id",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    },
                    {
                        "in": "query",
                        "name": "portions",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/kitchen/batches": {
            "get": {
                "tags": ["kitchen"],
                "summary": "Non-expired batches with portions left, totalled per meal",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/MealStock"
                            }
                        }
                    }
                }
            }
        },
        "/kitchen/orders": {
            "get": {
                "tags": ["kitchen"],
                "summary": "Every order, filterable by status and date",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/Order"
                            }
                        }
                    }
                }
            }
        },
        "/kitchen/orders/{id}/serve": {
            "post": {
                "tags": ["kitchen"],
                "summary": "Hand a paid order over",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/Order"
                        }
                    }
                }
            }
        },
        "/inventory": {
            "get": {
                "tags": ["inventory"],
                "summary": "On-hand ingredient levels",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "put": {
                "tags": ["inventory"],
                "summary": "Set an ingredient level by name",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/inventory/use": {
            "post": {
                "tags": ["inventory"],
                "summary": "Write off an ingredient amount",
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "409": {
                        "description": "Insufficient ingredient stock"
                    }
                }
            }
        },
        "/inventory/alerts": {
            "get": {
                "tags": ["inventory"],
                "summary": "Ingredients at or below their minimum",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/inventory/movements": {
            "get": {
                "tags": ["inventory"],
                "summary": "Ingredient movement history",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/subscriptions": {
            "get": {
                "tags": ["subscriptions"],
                "summary": "The caller's subscriptions",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "post": {
                "tags": ["subscriptions"],
                "summary": "Buy a weekly subscription",
                "responses": {
                    "201": {
                        "description": "Created"
                    },
                    "402": {
                        "description": "Insufficient balance"
                    }
                }
            }
        },
        "/subscriptions/can-use": {
            "get": {
                "tags": ["subscriptions"],
                "summary": "Whether a subscription covers a meal type on a date",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/purchase-requests": {
            "get": {
                "tags": ["purchases"],
                "summary": "Purchase requests, filterable by status",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "post": {
                "tags": ["purchases"],
                "summary": "Ask for an ingredient purchase",
                "responses": {
                    "201": {
                        "description": "Created"
                    }
                }
            }
        },
        "/purchase-requests/from-shortfall": {
            "post": {
                "tags": ["purchases"],
                "summary": "One purchase request per short ingredient line",
                "responses": {
                    "201": {
                        "description": "Created"
                    }
                }
            }
        },
        "/purchase-requests/{id}/approve": {
            "post": {
                "tags": ["purchases"],
                "summary": "Approve and credit inventory once",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "409": {
                        "description": "Already processed"
                    }
                }
            }
        },
        "/purchase-requests/{id}/reject": {
            "post": {
                "tags": ["purchases"],
                "summary": "Reject without touching inventory",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "format": "uuid"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/account/topup": {
            "post": {
                "tags": ["account"],
                "summary": "Add money to the caller's balance",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/account/balance": {
            "get": {
                "tags": ["account"],
                "summary": "The caller's balance",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/account/notifications": {
            "get": {
                "tags": ["account"],
                "summary": "The caller's notifications",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/users": {
            "post": {
                "tags": ["account"],
                "summary": "Create a user (admin)",
                "responses": {
                    "201": {
                        "description": "Created"
                    }
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "detail": {
                    "type": "string"
                }
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {
                    "type": "string"
                },
                "refresh_token": {
                    "type": "string"
                },
                "token_type": {
                    "type": "string"
                },
                "expires_in": {
                    "type": "integer"
                }
            }
        },
        "PlaceOrderRequest": {
            "type": "object",
            "required": ["meal_id", "meal_date", "payment_method"],
            "properties": {
                "meal_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "drink_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "meal_date": {
                    "type": "string",
                    "format": "date"
                },
                "payment_method": {
                    "type": "string",
                    "enum": ["one-time", "subscription"]
                }
            }
        },
        "Order": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "meal_id": {
                    "type": "string"
                },
                "meal": {
                    "type": "string"
                },
                "batch_id": {
                    "type": "string"
                },
                "meal_date": {
                    "type": "string",
                    "format": "date"
                },
                "meal_type": {
                    "type": "string"
                },
                "payment_method": {
                    "type": "string"
                },
                "status": {
                    "type": "string",
                    "enum": ["pending", "paid", "served"]
                },
                "total_price": {
                    "type": "string"
                },
                "is_served": {
                    "type": "boolean"
                },
                "drink": {
                    "$ref": "#/definitions/Order"
                }
            }
        },
        "PrepareRequest": {
            "type": "object",
            "required": ["meal_id", "portions"],
            "properties": {
                "meal_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "portions": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 100
                },
                "expiry_date": {
                    "type": "string",
                    "format": "date"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "Batch": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "meal_id": {
                    "type": "string"
                },
                "quantity": {
                    "type": "integer"
                },
                "prepared_date": {
                    "type": "string",
                    "format": "date"
                },
                "expiry_date": {
                    "type": "string",
                    "format": "date"
                }
            }
        },
        "MealStock": {
            "type": "object",
            "properties": {
                "meal_id": {
                    "type": "string"
                },
                "meal": {
                    "type": "string"
                },
                "meal_type": {
                    "type": "string"
                },
                "total": {
                    "type": "integer"
                },
                "batches": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Batch"
                    }
                }
            }
        },
        "MenuItem": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "meal_type": {
                    "type": "string"
                },
                "price": {
                    "type": "string"
                },
                "available": {
                    "type": "integer"
                }
            }
        },
        "ShortfallError": {
            "type": "object",
            "properties": {
                "detail": {
                    "type": "string"
                },
                "meal_id": {
                    "type": "string"
                },
                "portions": {
                    "type": "integer"
                },
                "shortfalls": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "ingredient_id": {
                                "type": "string"
                            },
                            "name": {
                                "type": "string"
                            },
                            "required": {
                                "type": "string"
                            },
                            "available": {
                                "type": "string"
                            },
                            "shortfall": {
                                "type": "string"
                            },
                            "unit": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds the values filled into docTemplate.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "School cafeteria API",
	Description:      "Meal preparation, FEFO order fulfillment, subscriptions and ingredient purchasing.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
