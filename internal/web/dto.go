// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package web

import (
	"time"

	"github.com/thryve/thryve/internal/auth"
)

type registerRequest struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8,maxbytes=72"`
	Age      *int     `json:"age" validate:"omitnil,min=10,max=120"`
	Weight   *float64 `json:"weight" validate:"omitnil,min=20,max=500"`
	Height   *float64 `json:"height" validate:"omitnil,min=50,max=250"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// registeredUser is the short user shape returned by register.
type registeredUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// userResponse is the public view of a user. It has no password or reset
// token fields, so they cannot be serialized by accident.
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       *int      `json:"age,omitempty"`
	Weight    *float64  `json:"weight,omitempty"`
	Height    *float64  `json:"height,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		Weight:    u.Weight,
		Height:    u.Height,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type registerResponse struct {
	Token string         `json:"token"`
	User  registeredUser `json:"user"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type meResponse struct {
	User userResponse `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type preferencesResponse struct {
	Preferences preferencesBody `json:"preferences"`
}

type preferencesBody struct {
	Units             string  `json:"units"`
	Theme             string  `json:"theme"`
	Notifications     bool    `json:"notifications"`
	DailyCalorieGoal  int     `json:"dailyCalorieGoal"`
	DailyWaterGoalML  int     `json:"dailyWaterGoalMl"`
	SleepGoalHours    float64 `json:"sleepGoalHours"`
	WeeklyWorkoutGoal int     `json:"weeklyWorkoutGoal"`
}

func newPreferencesBody(p *auth.Preferences) preferencesBody {
	return preferencesBody{
		Units:             p.Units,
		Theme:             p.Theme,
		Notifications:     p.Notifications,
		DailyCalorieGoal:  p.DailyCalorieGoal,
		DailyWaterGoalML:  p.DailyWaterGoalML,
		SleepGoalHours:    p.SleepGoalHours,
		WeeklyWorkoutGoal: p.WeeklyWorkoutGoal,
	}
}
