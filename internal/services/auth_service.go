package services

import (
	"context"
	"fmt"

	"rapidaid/internal/models"
	"rapidaid/internal/repositories/interfaces"
	"rapidaid/internal/utils"
	"rapidaid/internal/validators"
	"rapidaid/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, req *validators.RegisterAccountRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *validators.LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
}

type AuthResponse struct {
	Account *models.Account  `json:"account"`
	Tokens  *utils.TokenPair `json:"tokens"`
}

type authService struct {
	accountRepo   interfaces.AccountRepository
	ambulanceRepo interfaces.AmbulanceRepository
	hospitalRepo  interfaces.HospitalRepository
	jwtSecret     string
	logger        *logger.Logger
}

func NewAuthService(
	accountRepo interfaces.AccountRepository,
	ambulanceRepo interfaces.AmbulanceRepository,
	hospitalRepo interfaces.HospitalRepository,
	jwtSecret string,
	logger *logger.Logger,
) AuthService {
	return &authService{
		accountRepo:   accountRepo,
		ambulanceRepo: ambulanceRepo,
		hospitalRepo:  hospitalRepo,
		jwtSecret:     jwtSecret,
		logger:        logger,
	}
}

func (s *authService) Register(ctx context.Context, req *validators.RegisterAccountRequest) (*AuthResponse, error) {
	if existing, _ := s.accountRepo.GetByPhone(ctx, req.Phone); existing != nil {
		return nil, fmt.Errorf("phone number already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Role:         models.AccountRole(req.Role),
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	// Role accounts carry their operational entity; create it alongside.
	switch account.Role {
	case models.RoleAmbulance:
		ambulance := &models.Ambulance{
			DriverName:    req.Ambulance.DriverName,
			VehicleNumber: req.Ambulance.VehicleNumber,
			VehicleType:   req.Ambulance.VehicleType,
			Capacity:      req.Ambulance.Capacity,
			Status:        models.AmbulanceStatusOffline,
		}
		if ambulance.Capacity == 0 {
			ambulance.Capacity = 1
		}
		if err := s.ambulanceRepo.Create(ctx, ambulance); err != nil {
			return nil, err
		}
		account.EntityID = &ambulance.ID
		account.Ambulance = &models.AmbulanceDetails{
			DriverName:    ambulance.DriverName,
			VehicleNumber: ambulance.VehicleNumber,
			VehicleType:   ambulance.VehicleType,
			Capacity:      ambulance.Capacity,
		}

	case models.RoleHospital:
		hospital := &models.Hospital{
			Name:          req.Hospital.Name,
			Address:       req.Hospital.Address,
			Contact:       req.Hospital.Contact,
			ContactPhone:  req.Hospital.ContactPhone,
			AvailableBeds: req.Hospital.AvailableBeds,
			Location:      models.NewLocation(req.Hospital.Latitude, req.Hospital.Longitude),
		}
		if err := s.hospitalRepo.Create(ctx, hospital); err != nil {
			return nil, err
		}
		account.EntityID = &hospital.ID
		account.Hospital = &models.HospitalDetails{
			HospitalName:  hospital.Name,
			Address:       hospital.Address,
			ContactNumber: hospital.ContactPhone,
			TotalBeds:     hospital.AvailableBeds,
		}

	case models.RolePolice:
		account.Police = &models.PoliceDetails{
			StationName:  req.Police.StationName,
			BadgeNumber:  req.Police.BadgeNumber,
			Jurisdiction: req.Police.Jurisdiction,
		}
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	tokens, err := utils.GenerateTokenPair(account.ID, string(account.Role), account.Name, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.logger.WithField("account_id", account.ID.Hex()).WithField("role", account.Role).Info("Account registered")

	return &AuthResponse{Account: account, Tokens: tokens}, nil
}

func (s *authService) Login(ctx context.Context, req *validators.LoginRequest) (*AuthResponse, error) {
	account, err := s.accountRepo.GetByPhone(ctx, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	tokens, err := utils.GenerateTokenPair(account.ID, string(account.Role), account.Name, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.accountRepo.UpdateLastLogin(ctx, account.ID); err != nil {
		s.logger.WithError(err).Warn("Failed to record last login")
	}

	return &AuthResponse{Account: account, Tokens: tokens}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := utils.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token")
	}

	account, err := s.accountRepo.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, fmt.Errorf("account not found")
	}

	tokens, err := utils.GenerateTokenPair(account.ID, string(account.Role), account.Name, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &AuthResponse{Account: account, Tokens: tokens}, nil
}
