package handlers

// @title Inference Relay API
// @version 1.0
// @description Relays prompts to a hosted text-inference API and returns a simplified JSON result

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8081
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. Only enforced when AUTH_JWT_SECRET is set.

// @tag.name relay
// @tag.description Inference relay operations
