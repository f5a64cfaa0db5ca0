package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"storefront/database"
	"storefront/httperr"
	"storefront/middleware"
	"storefront/models"
)

type AuthController struct {
	Secret    []byte
	TokenTTL  time.Duration
	Blacklist *database.TokenBlacklist
}

func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid input"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      input.Name,
		Email:     input.Email,
		Password:  string(hashed),
		Role:      "customer",
		CreatedAt: time.Now().UTC(),
	}

	if _, err := database.UserCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			httperr.Respond(c, httperr.Errorf(httperr.ECONFLICT, "email already registered"))
			return
		}
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User registered successfully",
		"user": gin.H{
			"id":    user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "invalid input"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := database.UserCollection.FindOne(ctx, bson.M{"email": input.Email}).Decode(&user)
	if err != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "invalid email or password"))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "invalid email or password"))
		return
	}

	token, err := middleware.SignToken(user.ID, user.Role, ac.Secret, ac.TokenTTL)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
			"token": token,
		},
	})
}

// Logout blacklists the presented token until its natural expiry.
func (ac *AuthController) Logout(c *gin.Context) {
	raw, ok := middleware.BearerToken(c)
	if !ok {
		httperr.Respond(c, httperr.Errorf(httperr.EINVALID, "token required"))
		return
	}

	claims := extractClaims(raw, ac.Secret)
	if claims == nil {
		httperr.Respond(c, httperr.Errorf(httperr.EUNAUTHENTICATED, "invalid token"))
		return
	}

	exp := time.Now().Add(ac.TokenTTL).Unix()
	if v, ok := claims["exp"].(float64); ok {
		exp = int64(v)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := ac.Blacklist.Add(ctx, raw, exp); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func extractClaims(raw string, secret []byte) jwt.MapClaims {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}
