// Package api defines the MedTrack gRPC service: its request and response
// messages, the service descriptor and the JSON codec they travel in.
package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "medtrack.v1.MedTrackService"

// FullMethod returns the gRPC path of a method, as seen by interceptors.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type MedTrackServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Refresh(context.Context, *RefreshRequest) (*AuthResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)

	ListGroups(context.Context, *Empty) (*ListGroupsResponse, error)
	CreateGroup(context.Context, *CreateGroupRequest) (*GroupResponse, error)
	UpdateGroup(context.Context, *UpdateGroupRequest) (*GroupResponse, error)
	DeleteGroup(context.Context, *IDRequest) (*Empty, error)

	ListMedications(context.Context, *ListMedicationsRequest) (*ListMedicationsResponse, error)
	CreateMedication(context.Context, *CreateMedicationRequest) (*MedicationResponse, error)
	UpdateMedication(context.Context, *UpdateMedicationRequest) (*MedicationResponse, error)
	DeleteMedication(context.Context, *IDRequest) (*Empty, error)

	RecordDose(context.Context, *RecordDoseRequest) (*DoseResponse, error)
	ListDoses(context.Context, *MedicationRequest) (*ListDosesResponse, error)
	DeleteDose(context.Context, *IDRequest) (*Empty, error)
	CanRecordDose(context.Context, *MedicationRequest) (*EligibilityResponse, error)

	GetHistory(context.Context, *HistoryRequest) (*HistoryResponse, error)

	GrantAccess(context.Context, *GrantAccessRequest) (*GrantAccessResponse, error)
	RevokeAccess(context.Context, *IDRequest) (*Empty, error)
	ListAccess(context.Context, *Empty) (*ListAccessResponse, error)

	GetStats(context.Context, *Empty) (*StatsResponse, error)

	GetPreferences(context.Context, *Empty) (*PreferencesResponse, error)
	UpdatePreferences(context.Context, *UpdatePreferencesRequest) (*PreferencesResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MedTrackServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", MedTrackServer.Register),
		unary("Login", MedTrackServer.Login),
		unary("Refresh", MedTrackServer.Refresh),
		unary("Logout", MedTrackServer.Logout),
		unary("ListGroups", MedTrackServer.ListGroups),
		unary("CreateGroup", MedTrackServer.CreateGroup),
		unary("UpdateGroup", MedTrackServer.UpdateGroup),
		unary("DeleteGroup", MedTrackServer.DeleteGroup),
		unary("ListMedications", MedTrackServer.ListMedications),
		unary("CreateMedication", MedTrackServer.CreateMedication),
		unary("UpdateMedication", MedTrackServer.UpdateMedication),
		unary("DeleteMedication", MedTrackServer.DeleteMedication),
		unary("RecordDose", MedTrackServer.RecordDose),
		unary("ListDoses", MedTrackServer.ListDoses),
		unary("DeleteDose", MedTrackServer.DeleteDose),
		unary("CanRecordDose", MedTrackServer.CanRecordDose),
		unary("GetHistory", MedTrackServer.GetHistory),
		unary("GrantAccess", MedTrackServer.GrantAccess),
		unary("RevokeAccess", MedTrackServer.RevokeAccess),
		unary("ListAccess", MedTrackServer.ListAccess),
		unary("GetStats", MedTrackServer.GetStats),
		unary("GetPreferences", MedTrackServer.GetPreferences),
		unary("UpdatePreferences", MedTrackServer.UpdatePreferences),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "medtrack/v1/medtrack.proto",
}

func Register(s grpc.ServiceRegistrar, srv MedTrackServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary adapts a typed server method to a grpc.MethodDesc, the way
// protoc-gen-go-grpc generated handlers do.
func unary[Req, Resp any](name string, call func(MedTrackServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MedTrackServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MedTrackServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke calls a MedTrack method over cc with the JSON codec.
func Invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, req *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	if err := cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
